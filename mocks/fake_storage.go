//+build !release

package mocks

import (
	"sync"

	"github.com/go-home-io/klyqa/providers"
)

type fakeStorage struct {
	sync.Mutex
	data map[string]map[string][]byte
	err  error
}

func (f *fakeStorage) Save(kind string, id string, data []byte) error {
	f.Lock()
	defer f.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.data[kind]; !ok {
		f.data[kind] = make(map[string][]byte)
	}
	f.data[kind][id] = data
	return nil
}

func (f *fakeStorage) Delete(kind string, id string) error {
	f.Lock()
	defer f.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.data[kind], id)
	return nil
}

func (f *fakeStorage) Load(kind string) (map[string][]byte, error) {
	f.Lock()
	defer f.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	res := make(map[string][]byte, len(f.data[kind]))
	for k, v := range f.data[kind] {
		res[k] = v
	}
	return res, nil
}

func (f *fakeStorage) Close() error {
	return nil
}

// FakeNewStorage creates a new in-memory storage.
// Non-nil err is returned from every operation.
func FakeNewStorage(err error) providers.IStorageProvider {
	return &fakeStorage{
		data: make(map[string]map[string][]byte),
		err:  err,
	}
}
