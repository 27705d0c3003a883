// Package parser recovers structured candidate data from resume text.
//
// Every rule is a pure function returning an optional match. Absence of
// a field yields an empty value, never an error: partial data beats a
// hard failure on the messy text real resumes produce.
package parser

import (
	"regexp"
	"strings"
	"unicode"

	"coverdraft/internal/types"
)

const (
	// FallbackName is used when no plausible candidate name is found.
	FallbackName = "Candidate"

	maxSkills     = 15
	maxExperience = 5
	maxEducation  = 3

	// nameScanLines bounds how far down the document the unlabeled
	// name rule looks.
	nameScanLines = 5
)

var (
	emailRe    = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe    = regexp.MustCompile(`(\+?\d{1,2}[\s.\-]?)?\(?\d{3}\)?[\s.\-]?\d{3}[\s.\-]?\d{4}`)
	linkedinRe = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/in/[A-Za-z0-9_\-%]+`)
	githubRe   = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?github\.com/[A-Za-z0-9_\-]+`)
	cityLineRe = regexp.MustCompile(`^[A-Z][A-Za-z .\-]+,\s*(?:[A-Z]{2}|[A-Z][a-z]+)\b`)

	nameLabelRe     = regexp.MustCompile(`(?i)^name\s*[:\-]\s*(.+)$`)
	locationLabelRe = regexp.MustCompile(`(?i)^(?:location|address)\s*[:\-]\s*(.+)$`)

	// dateRangeRe matches "Jan 2020 - Present", "2019-2023", "03/2021 - 06/2022".
	dateRangeRe = regexp.MustCompile(`(?i)((?:[A-Za-z]{3,9}\.?\s+)?(?:\d{1,2}/)?\d{4})\s*(?:-|–|—|to)\s*((?:[A-Za-z]{3,9}\.?\s+)?(?:\d{1,2}/)?\d{4}|present|current|now)`)

	nameForbiddenRe = regexp.MustCompile(`[@\d()+/]`)
	bulletRe        = regexp.MustCompile(`^[\s]*[-•*·▪◦]\s*`)
	skillSplitRe    = regexp.MustCompile(`[,;|•·]`)
)

// section heading synonyms, all matched case-insensitively with an
// optional trailing colon.
var sectionHeadings = map[string][]string{
	"skills":     {"skills", "technical skills", "core skills", "core competencies", "technologies", "tools", "areas of expertise"},
	"experience": {"experience", "work experience", "professional experience", "employment", "employment history", "work history", "career history"},
	"education":  {"education", "academic background", "academics", "qualifications", "certifications"},
	"other":      {"summary", "profile", "objective", "projects", "publications", "awards", "interests", "references", "languages", "volunteer"},
}

// Parse recovers a CandidateProfile from plain resume text. It never
// fails: missing fields come back empty.
func Parse(text string) types.CandidateProfile {
	lines := splitLines(text)

	profile := types.CandidateProfile{
		Name:    extractName(lines),
		Contact: extractContact(text, lines),
	}
	profile.Skills = extractSkills(lines)
	profile.Experience = extractExperience(lines)
	profile.Education = extractEducation(lines)
	return profile
}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, len(raw))
	for i, l := range raw {
		lines[i] = strings.TrimSpace(l)
	}
	return lines
}

// headingSection returns the section a heading line opens, or "".
func headingSection(line string) string {
	stripped := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ":")))
	if stripped == "" || len(strings.Fields(stripped)) > 4 {
		return ""
	}
	for section, names := range sectionHeadings {
		for _, name := range names {
			if stripped == name {
				return section
			}
		}
	}
	return ""
}

// extractName tries, in order: a labeled "Name:" line anywhere, then a
// plausible personal name within the first few non-empty lines, then
// the fallback constant.
func extractName(lines []string) string {
	for _, line := range lines {
		if m := nameLabelRe.FindStringSubmatch(line); m != nil {
			if name := strings.TrimSpace(m[1]); name != "" {
				return name
			}
		}
	}

	seen := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		seen++
		if seen > nameScanLines {
			break
		}
		if looksLikeName(line) {
			return line
		}
	}
	return FallbackName
}

// looksLikeName accepts two to four capitalized tokens with no digits
// or contact punctuation, excluding known section headings.
func looksLikeName(line string) bool {
	if len(line) > 40 || nameForbiddenRe.MatchString(line) {
		return false
	}
	if headingSection(line) != "" {
		return false
	}
	tokens := strings.Fields(line)
	if len(tokens) < 2 || len(tokens) > 4 {
		return false
	}
	for _, tok := range tokens {
		r := []rune(tok)[0]
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func extractContact(text string, lines []string) types.ContactInfo {
	contact := types.ContactInfo{
		Email:    emailRe.FindString(text),
		LinkedIn: linkedinRe.FindString(text),
		GitHub:   githubRe.FindString(text),
	}

	// the github pattern also matches linkedin-style profile paths, so
	// make sure a linkedin URL was not double counted
	if contact.GitHub != "" && strings.Contains(strings.ToLower(contact.GitHub), "linkedin") {
		contact.GitHub = ""
	}

	if phone := phoneRe.FindString(text); phone != "" {
		contact.Phone = strings.TrimSpace(phone)
	}
	contact.Location = extractLocation(lines)
	return contact
}

func extractLocation(lines []string) string {
	for _, line := range lines {
		if m := locationLabelRe.FindStringSubmatch(line); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	seen := 0
	for _, line := range lines {
		if line == "" {
			continue
		}
		seen++
		if seen > nameScanLines {
			break
		}
		if cityLineRe.MatchString(line) && !emailRe.MatchString(line) {
			return line
		}
	}
	return ""
}

// sectionWindow returns the lines between the first heading of the
// given section and the next heading of any section.
func sectionWindow(lines []string, section string) []string {
	start := -1
	for i, line := range lines {
		if headingSection(line) == section {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}
	end := len(lines)
	for i := start; i < len(lines); i++ {
		if headingSection(lines[i]) != "" {
			end = i
			break
		}
	}
	return lines[start:end]
}

func extractSkills(lines []string) []string {
	window := sectionWindow(lines, "skills")
	if len(window) == 0 {
		return nil
	}

	var skills []string
	seen := make(map[string]bool)
	for _, line := range window {
		line = bulletRe.ReplaceAllString(line, "")
		for _, part := range skillSplitRe.Split(line, -1) {
			skill := strings.TrimSpace(part)
			if skill == "" || len(skill) > 60 {
				continue
			}
			key := strings.ToLower(skill)
			if seen[key] {
				continue
			}
			seen[key] = true
			skills = append(skills, skill)
			if len(skills) >= maxSkills {
				return skills
			}
		}
	}
	return skills
}

// blocks splits a section window into blank-line separated chunks.
func blocks(window []string) [][]string {
	var out [][]string
	var current []string
	for _, line := range window {
		if line == "" {
			if len(current) > 0 {
				out = append(out, current)
				current = nil
			}
			continue
		}
		current = append(current, line)
	}
	if len(current) > 0 {
		out = append(out, current)
	}
	return out
}

var titleOrgSeparators = []string{" at ", " — ", " – ", " - ", " | ", ", "}

func extractExperience(lines []string) []types.ExperienceEntry {
	window := sectionWindow(lines, "experience")
	var entries []types.ExperienceEntry
	for _, block := range blocks(window) {
		if len(entries) >= maxExperience {
			break
		}
		entries = append(entries, parseExperienceBlock(block))
	}
	return entries
}

func parseExperienceBlock(block []string) types.ExperienceEntry {
	entry := types.ExperienceEntry{}
	var descLines []string
	for i, line := range block {
		if entry.DateRange == "" {
			if m := dateRangeRe.FindString(line); m != "" {
				entry.DateRange = strings.TrimSpace(m)
				line = strings.TrimSpace(strings.Trim(strings.Replace(line, m, "", 1), " ,|-"))
				if line == "" {
					continue
				}
			}
		}
		if i == 0 {
			entry.Title, entry.Organization = splitTitleOrg(line)
			continue
		}
		if entry.Organization == "" && i == 1 && !bulletRe.MatchString(block[i]) && dateRangeRe.FindString(block[i]) == "" {
			entry.Organization = line
			continue
		}
		descLines = append(descLines, bulletRe.ReplaceAllString(line, ""))
	}
	entry.Description = strings.Join(descLines, " ")
	return entry
}

func splitTitleOrg(line string) (title, org string) {
	for _, sep := range titleOrgSeparators {
		if idx := strings.Index(line, sep); idx > 0 {
			return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+len(sep):])
		}
	}
	return strings.TrimSpace(line), ""
}

var degreeRe = regexp.MustCompile(`(?i)\b(b\.?s\.?c?|b\.?a\.?|m\.?s\.?c?|m\.?a\.?|mba|ph\.?d|bachelor|master|doctor|associate|diploma)\b`)
var institutionRe = regexp.MustCompile(`(?i)\b(university|college|institute|school|academy|polytechnic)\b`)

func extractEducation(lines []string) []types.EducationEntry {
	window := sectionWindow(lines, "education")
	var entries []types.EducationEntry
	for _, block := range blocks(window) {
		if len(entries) >= maxEducation {
			break
		}
		entries = append(entries, parseEducationBlock(block))
	}
	return entries
}

func parseEducationBlock(block []string) types.EducationEntry {
	entry := types.EducationEntry{}
	for _, line := range block {
		clean := bulletRe.ReplaceAllString(line, "")
		if entry.DateRange == "" {
			if m := dateRangeRe.FindString(clean); m != "" {
				entry.DateRange = strings.TrimSpace(m)
			}
		}
		switch {
		case entry.Degree == "" && degreeRe.MatchString(clean):
			entry.Degree = strings.TrimSpace(dateRangeRe.ReplaceAllString(clean, ""))
			entry.Degree = strings.Trim(entry.Degree, " ,|-")
		case entry.Institution == "" && institutionRe.MatchString(clean):
			entry.Institution = strings.TrimSpace(dateRangeRe.ReplaceAllString(clean, ""))
			entry.Institution = strings.Trim(entry.Institution, " ,|-")
		}
	}
	if entry.Degree == "" && entry.Institution == "" && len(block) > 0 {
		entry.Institution = bulletRe.ReplaceAllString(block[0], "")
	}
	return entry
}
