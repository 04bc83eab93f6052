package ai

import (
	"fmt"
)

const jsonOnly = "Respond with JSON only, no surrounding prose."

func tailorSystemPrompt(mode TailorMode) string {
	base := "You are a career assistant that tailors job application material " +
		"to a specific job posting. Never invent experience the candidate does not have. "
	switch mode {
	case TailorModeCV:
		return base + `Produce tailored CV bullet points emphasizing the most relevant experience. ` +
			jsonOnly + ` Schema: {"cvBullets": ["..."], "summary": "..."}`
	case TailorModeCover:
		return base + `Produce a tailored cover letter in the candidate's voice. ` +
			jsonOnly + ` Schema: {"coverLetter": "...", "summary": "..."}`
	default:
		return base + `Produce tailored CV bullet points and a cover letter. ` +
			jsonOnly + ` Schema: {"cvBullets": ["..."], "coverLetter": "...", "summary": "..."}`
	}
}

func tailorUserPrompt(jobDescription, profile string) string {
	return fmt.Sprintf("Job posting:\n%s\n\nCandidate profile:\n%s", jobDescription, profile)
}

func refineBulletSystemPrompt(instruction BulletInstruction) string {
	var task string
	switch instruction {
	case BulletShorten:
		task = "Shorten the CV bullet point below without losing its impact."
	case BulletAddMetrics:
		task = "Rewrite the CV bullet point below to foreground quantifiable results. Do not fabricate numbers; use placeholders like [X%] where the candidate must fill one in."
	default:
		task = "Rephrase the CV bullet point below with stronger action verbs."
	}
	return task + " " + jsonOnly + ` Schema: {"bullet": "..."}`
}

const shortenCoverSystemPrompt = "Shorten the cover letter below to roughly two thirds of its length, " +
	"keeping every factual claim intact. " + jsonOnly + ` Schema: {"coverLetter": "..."}`

const regenerateCoverSystemPrompt = "Write a fresh cover letter for the job posting and candidate profile below, " +
	"taking a different angle than a typical first draft. Never invent experience. " +
	jsonOnly + ` Schema: {"coverLetter": "..."}`

func replySystemPrompt(tone ReplyTone) string {
	register := "professional"
	switch tone {
	case ToneFriendly:
		register = "warm but professional"
	case ToneConcise:
		register = "brief and to the point"
	}
	return fmt.Sprintf("Draft a %s reply to the recruiter email below, written in the candidate's voice. ", register) +
		jsonOnly + ` Schema: {"reply": "..."}`
}
