package providers

// ISecretProvider defines secrets store used by config templates.
type ISecretProvider interface {
	Get(name string) (string, error)
	Set(name string, data string) error
}
