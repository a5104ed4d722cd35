package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckMinimumVersion(t *testing.T) {
	tests := []struct {
		name    string
		engine  string
		minimum string
		wantErr bool
	}{
		{name: "exact match", engine: "1.2.0", minimum: "1.2.0", wantErr: false},
		{name: "engine newer", engine: "1.3.0", minimum: "1.2.0", wantErr: false},
		{name: "engine newer patch", engine: "1.2.5", minimum: "1.2.0", wantErr: false},
		{name: "engine older", engine: "1.1.0", minimum: "1.2.0", wantErr: true},
		{name: "engine older major", engine: "1.9.9", minimum: "2.0.0", wantErr: true},
		{name: "v prefixes", engine: "v1.2.0", minimum: "v1.0.0", wantErr: false},
		{name: "empty minimum", engine: "1.2.0", minimum: "", wantErr: false},
		{name: "dev build skips check", engine: "main", minimum: "99.0.0", wantErr: false},
		{name: "invalid engine version", engine: "not-a-version", minimum: "1.0.0", wantErr: true},
		{name: "invalid minimum version", engine: "1.0.0", minimum: "not-a-version", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckMinimumVersion(tt.engine, tt.minimum)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
