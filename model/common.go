package model

type (
	// ClientId identifies one editing session of one client on the wire.
	ClientId string

	// SessionId identifies a shared design session (the design id).
	SessionId string
)

// Canvas defaults used for fresh designs and the initial history baseline.
const (
	DefaultCanvasBackground = "#ffffff"
	DefaultCanvasWidth      = 1080
	DefaultCanvasHeight     = 1080
)
