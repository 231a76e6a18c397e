package common

// Values shared between the HTTP layer and the services.
const (
	// AuthorizationHeader carries "Bearer <jwt>" on authenticated requests.
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "

	// AppName is used as the TOTP issuer and the metrics namespace default.
	AppName = "Babypal"
)
