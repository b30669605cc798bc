package ui

// StatusMsg carries a transient status-bar message from a view component
// to the root model.
type StatusMsg struct {
	Text    string
	IsError bool
}
