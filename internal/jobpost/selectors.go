package jobpost

// Selector chains for pulling job fields out of listing pages. The
// page markup belongs to a third party and drifts; isolating the
// selectors here keeps layout churn away from the resolver logic.
// Each chain is tried in order and the first non-empty match wins.

var titleSelectors = []string{
	"h1.top-card-layout__title",
	"h1.topcard__title",
	"h1[data-job-title]",
	".job-details-jobs-unified-top-card__job-title",
	"h1.job-title",
	"h1",
}

var companySelectors = []string{
	"a.topcard__org-name-link",
	".top-card-layout__company",
	".job-details-jobs-unified-top-card__company-name",
	".topcard__flavor a",
	"[data-company-name]",
	".company-name",
}

var locationSelectors = []string{
	".topcard__flavor--bullet",
	".top-card-layout__second-subline .topcard__flavor--bullet",
	".job-details-jobs-unified-top-card__primary-description",
	".job-location",
}

var descriptionSelectors = []string{
	".show-more-less-html__markup",
	".description__text",
	".jobs-description-content__text",
	".job-description",
	"article",
	"main",
}

// noiseSelector lists elements stripped before any text extraction.
var noiseSelector = "script, style, noscript, nav, footer, header, iframe, form, button"
