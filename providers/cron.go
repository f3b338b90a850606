package providers

// ICronProvider defines scheduler of periodic jobs.
type ICronProvider interface {
	AddFunc(spec string, cmd func()) (int, error)
	RemoveFunc(id int)
	Stop()
}
