package common

// TokenCookieName is the HTTP-only cookie carrying the signed access token.
const TokenCookieName = "token"

// SessionCookieName is the signed cookie carrying the server-side session id
// that flash messages are keyed by.
const SessionCookieName = "sid"

// InvalidCredentialsMessage is shown on any failed login.
const InvalidCredentialsMessage = "Invalid username or password"
