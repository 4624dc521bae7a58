package synth

import (
	"fmt"
	"strings"
)

const (
	analysisSystem       = "You are a precise job application timeline extractor. Output valid JSON only."
	companyExtractSystem = "You extract company names from job application emails."
	companyCleanSystem   = "You clean and deduplicate company names."
)

func analysisPrompt(company, compact string, hints []string) string {
	status := ""
	if len(hints) > 0 {
		status = "PRE-DETECTED STATUS: " + strings.Join(hints, "\n")
	}

	return fmt.Sprintf(`Analyze job application emails for "%s".

EMAILS (date | sender | subject [pre-detected stages]):
%s

%s

CRITICAL RULES:
1. POSITION: Extract the actual JOB TITLE (e.g., "Graduate Software Engineer", "Analyst Program 2026", "Data Scientist").
   - Look for patterns like "applying for [POSITION]", "application for [POSITION]", "Thank you for applying to [POSITION]"
   - NEVER use generic phrases like "Thank you for your application", "We've received your application", "role at X"

2. MULTIPLE POSITIONS: If the candidate applied to MULTIPLE different positions at this company, return ALL of them as separate entries in the "positions" array. Each position should have its own timeline and status.

3. "video_interview" = ONE-WAY pre-recorded video (HireVue, Willo) only. Phone calls and live video calls are human_interviews.

4. Count human interviews: same event on same day = 1, different days = multiple. "Super Day" = 1 event.

5. "status": For EACH position separately - "rejected" if that specific position was rejected, "offer" if offered, "pending" otherwise.

OUTPUT JSON only (array of positions):
{"positions":[{"position":"Job Title","applied":"YYYY-MM-DD","aptitude_test":"YYYY-MM-DD or null","simulation_test":"YYYY-MM-DD or null","coding_test":"YYYY-MM-DD or null","video_interview":"YYYY-MM-DD or null","human_interviews":N,"status":"pending|rejected|offer"}]}`,
		company, compact, status)
}

func companyExtractPrompt(lines []string) string {
	return fmt.Sprintf(`Below are job-related emails as 'from_domain | subject'.
Extract the REAL company names the user applied to.

IMPORTANT:
- ATS domains (lever.co, workday.com, greenhouse.io, tal.net) are NOT companies.
  Extract the real company from the SUBJECT.
- Examples:
  - "hire.lever.co | Thank you for application to ION Group" → "ION Group"
  - "blackrock.tal.net | BlackRock | Application update" → "BlackRock"
  - "myworkday.com | Thank You for Applying to MUFG" → "MUFG"
  - "noreply@mail.hirevue-app.eu | Video interview for UBS" → "UBS"

Return JSON: {"companies_applied":["Company1","Company2",...]}

Emails:
`+"```"+`
%s
`+"```", strings.Join(lines, "\n"))
}

func companyCleanPrompt(raw []string) string {
	quoted := make([]string, len(raw))
	for i, name := range raw {
		quoted[i] = fmt.Sprintf("%q", name)
	}

	return fmt.Sprintf(`Clean this list of company names:

1. REMOVE non-companies: "BAE", "KIM", "WORKDAY", "GREENHOUSE", "LEVER", generic names
2. NORMALIZE: "Morgan Stanley HK" → "Morgan Stanley", "Bloomberg L.P." → "Bloomberg"
3. MERGE duplicates
4. IMPORTANT: Keep "UBS" and "ION Group" as SEPARATE companies (they are different!)

Input: [%s]
Output JSON: {"clean_companies": ["Company1", "Company2", ...]}`, strings.Join(quoted, ", "))
}
