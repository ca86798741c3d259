package models

const DefaultNotificationIcon = "/static/images/emergency-icon.png"

// DefaultVibratePattern is in milliseconds: vibrate, pause, vibrate.
var DefaultVibratePattern = []int{200, 100, 200}

type Notification struct {
	Title              string `json:"title"`
	Body               string `json:"body"`
	Icon               string `json:"icon"`
	Badge              string `json:"badge"`
	Vibrate            []int  `json:"vibrate"`
	RequireInteraction bool   `json:"requireInteraction"`
}
