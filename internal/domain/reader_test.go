package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{"empty email is allowed", "", false},
		{"simple address", "a@b.co", false},
		{"address with plus and dots", "first.last+tag@example.co.uk", false},
		{"no at sign", "not-an-email", true},
		{"missing tld", "user@host", true},
		{"single letter tld", "user@host.x", true},
		{"spaces", "user name@example.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestReaderValidate(t *testing.T) {
	reader := Reader{Name: "Ada", Type: ReaderStudent}
	assert.NoError(t, reader.Validate())

	reader.Name = ""
	assert.Error(t, reader.Validate())

	reader = Reader{Name: "Ada", Type: ReaderType("alumnus")}
	assert.Error(t, reader.Validate())

	reader = Reader{Name: "Ada", Type: ReaderFaculty, Email: "bad"}
	assert.Error(t, reader.Validate())
}

func TestReaderTypeValid(t *testing.T) {
	for _, rt := range []ReaderType{ReaderStudent, ReaderFaculty, ReaderStaff, ReaderExternal} {
		assert.True(t, rt.Valid(), string(rt))
	}
	assert.False(t, ReaderType("").Valid())
	assert.False(t, ReaderType("robot").Valid())
}
