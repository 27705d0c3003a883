package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
San Francisco, CA
jane.doe@example.com | (415) 555-0123
linkedin.com/in/janedoe | github.com/janedoe

Summary
Senior engineer focused on data platforms.

Skills
Python, SQL, Go, Kubernetes, Terraform
Python, Airflow

Experience
Senior Data Engineer at Acme Analytics
Jan 2021 - Present
- Built streaming ingestion handling 2M events per day
- Cut warehouse costs by 30%

Data Engineer - Initech
2018 - 2020
- Maintained ETL pipelines

Education
B.S. Computer Science
Stanford University
2014 - 2018
`

func TestParseName(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "labeled line wins",
			text: "Resume\nName: Jane Doe\njane@example.com",
			want: "Jane Doe",
		},
		{
			name: "labeled line anywhere in document",
			text: "Summary\nGreat engineer\nName: John Q Smith",
			want: "John Q Smith",
		},
		{
			name: "first plausible line",
			text: "Jane Doe\njane@example.com",
			want: "Jane Doe",
		},
		{
			name: "skips contact lines",
			text: "jane@example.com\nJane Doe\n415-555-0123",
			want: "Jane Doe",
		},
		{
			name: "section heading is not a name",
			text: "Work Experience\nSoftware Engineer at Acme",
			want: FallbackName,
		},
		{
			name: "single token is not a name",
			text: "Jane\nSkills: Go",
			want: FallbackName,
		},
		{
			name: "empty input",
			text: "",
			want: FallbackName,
		},
		{
			name: "lowercase line rejected",
			text: "jane doe\nskills: go",
			want: FallbackName,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := Parse(tt.text)
			assert.Equal(t, tt.want, profile.Name)
		})
	}
}

func TestParseContact(t *testing.T) {
	profile := Parse(sampleResume)

	assert.Equal(t, "jane.doe@example.com", profile.Contact.Email)
	assert.Equal(t, "(415) 555-0123", profile.Contact.Phone)
	assert.Equal(t, "San Francisco, CA", profile.Contact.Location)
	assert.Equal(t, "linkedin.com/in/janedoe", profile.Contact.LinkedIn)
	assert.Equal(t, "github.com/janedoe", profile.Contact.GitHub)
}

func TestParseSkills(t *testing.T) {
	profile := Parse(sampleResume)

	require.NotEmpty(t, profile.Skills)
	assert.Equal(t, []string{"Python", "SQL", "Go", "Kubernetes", "Terraform", "Airflow"}, profile.Skills)
}

func TestParseSkillsCap(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("Skills\n")
	for i := 0; i < 30; i++ {
		sb.WriteString("Skill")
		sb.WriteByte(byte('A' + i))
		sb.WriteString(", ")
	}
	profile := Parse(sb.String())
	assert.Len(t, profile.Skills, maxSkills)
}

func TestParseSkillsMissingSection(t *testing.T) {
	profile := Parse("Jane Doe\njane@example.com\nExperience\nEngineer at Acme")
	assert.Empty(t, profile.Skills)
}

func TestParseExperience(t *testing.T) {
	profile := Parse(sampleResume)

	require.Len(t, profile.Experience, 2)

	first := profile.Experience[0]
	assert.Equal(t, "Senior Data Engineer", first.Title)
	assert.Equal(t, "Acme Analytics", first.Organization)
	assert.Equal(t, "Jan 2021 - Present", first.DateRange)
	assert.Contains(t, first.Description, "streaming ingestion")

	second := profile.Experience[1]
	assert.Equal(t, "Data Engineer", second.Title)
	assert.Equal(t, "Initech", second.Organization)
	assert.Equal(t, "2018 - 2020", second.DateRange)
}

func TestParseEducation(t *testing.T) {
	profile := Parse(sampleResume)

	require.Len(t, profile.Education, 1)
	assert.Equal(t, "B.S. Computer Science", profile.Education[0].Degree)
	assert.Equal(t, "Stanford University", profile.Education[0].Institution)
	assert.Equal(t, "2014 - 2018", profile.Education[0].DateRange)
}

func TestParseEmptyTextYieldsEmptyProfile(t *testing.T) {
	for _, text := range []string{"", "   \n  \n\t"} {
		profile := Parse(text)
		assert.Equal(t, FallbackName, profile.Name)
		assert.Empty(t, profile.Contact.Email)
		assert.Empty(t, profile.Skills)
		assert.Empty(t, profile.Experience)
		assert.Empty(t, profile.Education)
	}
}

func TestHeadingSection(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"Skills", "skills"},
		{"TECHNICAL SKILLS:", "skills"},
		{"Work Experience", "experience"},
		{"Employment History", "experience"},
		{"Education", "education"},
		{"Summary", "other"},
		{"Jane Doe", ""},
		{"Built data pipelines for analytics teams at scale", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, headingSection(tt.line), "line %q", tt.line)
	}
}

func BenchmarkParse(b *testing.B) {
	for b.Loop() {
		Parse(sampleResume)
	}
}
