package handler

import "time"

// Export for testing
type ErrorResponse = errorResponse
type SignupResponse = signupResponse
type LoginResponse = loginResponse
type MeResponse = meResponse
type MessageResponse = messageResponse
type CognitoSignupResponse = cognitoSignupResponse
type CognitoLoginResponse = cognitoLoginResponse
type ProfileResponse = profileResponse
type UploadedFileResponse = uploadedFileResponse
type UploadListResponse = uploadListResponse
type StorageConfigResponse = storageConfigResponse
type HealthResponse = healthResponse
type DBTimeResponse = dbTimeResponse

var WriteServiceError = writeServiceError
var Itoa = itoa

func SetHealthClock(h *HealthHandler, now func() time.Time) {
	h.now = now
}
