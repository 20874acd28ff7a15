//go:build !nogpu

package main

import _ "github.com/gogpu/batch2d/backend/gpu"
