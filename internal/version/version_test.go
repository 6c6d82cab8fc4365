package version

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetBuildInfo(t *testing.T) {
	old := Version
	defer func() { Version = old }()

	Version = "v1.4.2-rc1"
	info := GetBuildInfo()

	assert.Equal(t, "v1.4.2-rc1", info.Version)
	assert.Equal(t, "1.4.2", info.SemVer)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, runtime.GOOS+"/"+runtime.GOARCH, info.Platform)
}

func TestFullVersion(t *testing.T) {
	out := FullVersion()

	assert.True(t, strings.HasPrefix(out, "fileindex "+Version))
	assert.Contains(t, out, "Go Version:")
	assert.Contains(t, out, "Platform:")
}
