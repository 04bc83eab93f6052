package model

import (
	"encoding/json"
	"time"
)

// Application is one tailored job application: the inputs the caller supplied
// and the AI-generated document parts that have been produced so far.
type Application struct {
	ID             string           `db:"id" json:"id"`
	AccountID      string           `db:"account_id" json:"accountId"`
	JobDescription string           `db:"job_description" json:"jobDescription"`
	Profile        string           `db:"profile" json:"profile"`
	CVBullets      *json.RawMessage `db:"cv_bullets" json:"cvBullets,omitempty"`
	CoverLetter    *string          `db:"cover_letter" json:"coverLetter,omitempty"`
	CreatedAt      time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time        `db:"updated_at" json:"updatedAt"`
}

type CreateApplicationParams struct {
	AccountID      string
	JobDescription string
	Profile        string
	CVBullets      *json.RawMessage
	CoverLetter    *string
}

type UpdateApplicationParams struct {
	CVBullets   *json.RawMessage
	CoverLetter *string
}
