package users

import "time"

type RoleRequest struct {
	Role string `json:"role" binding:"required,oneof=reader librarian admin"`
}

type StatusRequest struct {
	IsDisabled *bool `json:"is_disabled" binding:"required"`
}

type RejectCredentialRequest struct {
	Reason string `json:"reason" binding:"required,max=512"`
}

type Response struct {
	ID                        string           `json:"id"`
	Name                      string           `json:"name"`
	Email                     *string          `json:"email,omitempty"`
	Role                      string           `json:"role"`
	IsDisabled                bool             `json:"is_disabled"`
	CredentialStatus          CredentialStatus `json:"credential_status"`
	CredentialURL             *string          `json:"credential_url,omitempty"`
	CredentialUploadedAt      *time.Time       `json:"credential_uploaded_at,omitempty"`
	CredentialVerifiedAt      *time.Time       `json:"credential_verified_at,omitempty"`
	CredentialVerifiedBy      *string          `json:"credential_verified_by,omitempty"`
	CredentialRejectionReason *string          `json:"credential_rejection_reason,omitempty"`
	CreatedAt                 time.Time        `json:"created_at"`
}

type VerifyResponse struct {
	User                 Response `json:"user"`
	PromotedReservations int64    `json:"promoted_reservations"`
}
