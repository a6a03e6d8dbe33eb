package service

import "time"

var NormalizeEmail = normalizeEmail
var NormalizeMIME = normalizeMIME
var IsHTTPURL = isHTTPURL

const KeyJWTSecret = keyJWTSecret

func SetAuthClock(svc AuthService, now func() time.Time) {
	svc.(*authService).now = now
}
