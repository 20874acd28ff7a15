//go:build !nogpu

package gpu

import (
	"github.com/gogpu/batch2d/command"
)

func init() {
	command.Register("gpu", func(command.BackendConfig) (command.Backend, error) {
		dev, err := OpenDevice()
		if err != nil {
			return nil, err
		}
		b, err := New(dev, Options{})
		if err != nil {
			dev.Close()
			return nil, err
		}
		return b, nil
	})
}
