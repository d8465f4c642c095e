package entity

import "time"

// Platform identifies the operating system family of a registered device.
type Platform string

const (
	PlatformAndroid Platform = "ANDROID"
	PlatformIOS     Platform = "IOS"
	PlatformWeb     Platform = "WEB"
)

// DeviceTarget is a push-capable device registered by a member.
// The pipeline only reads it and reports token invalidation or use.
type DeviceTarget struct {
	ID         int64
	MemberID   int64
	Token      string
	Platform   Platform
	DeviceName string
	Active     bool
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// MaskedToken returns a log-safe rendering of the token.
func (d DeviceTarget) MaskedToken() string {
	return MaskToken(d.Token)
}

// MaskToken keeps the first and last four characters of a token.
func MaskToken(token string) string {
	if len(token) <= 12 {
		return "****"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
