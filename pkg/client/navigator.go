package client

// Navigator is the single injected navigation capability of the
// hosting environment.
type Navigator interface {
	CurrentPath() string
	RedirectTo(url string)
}
