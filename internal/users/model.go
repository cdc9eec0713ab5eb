package users

import (
	"database/sql"
	"time"

	"BIBLIO-backend/internal/platform/apierr"
)

type CredentialStatus string

const (
	CredentialNone     CredentialStatus = "none"
	CredentialUploaded CredentialStatus = "uploaded"
	CredentialVerified CredentialStatus = "verified"
	CredentialRejected CredentialStatus = "rejected"
)

type User struct {
	ID                        string
	Name                      string
	Email                     sql.NullString
	Role                      string
	IsDisabled                bool
	CredentialPath            sql.NullString
	CredentialUploadedAt      sql.NullTime
	CredentialVerifiedAt      sql.NullTime
	CredentialVerifiedBy      sql.NullString
	CredentialRejectionReason sql.NullString
	CreatedAt                 time.Time
}

func (u *User) CredentialStatus() CredentialStatus {
	switch {
	case u.CredentialVerifiedAt.Valid:
		return CredentialVerified
	case u.CredentialPath.Valid && u.CredentialPath.String != "":
		return CredentialUploaded
	case u.CredentialRejectionReason.Valid:
		return CredentialRejected
	}
	return CredentialNone
}

type Filter struct {
	Q        *string
	Role     *string
	Disabled *bool
}

func verifiable(u *User) error {
	if u.CredentialStatus() != CredentialUploaded {
		return apierr.ErrUnprocessable("no credential awaiting verification")
	}
	return nil
}

func rejectable(u *User) error {
	if !u.CredentialPath.Valid || u.CredentialPath.String == "" {
		return apierr.ErrUnprocessable("no credential uploaded")
	}
	return nil
}
