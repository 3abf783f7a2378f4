package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceSelection_SelectedUsesFixedOrder(t *testing.T) {
	sel := SourceSelection{UseAdHoc: true, UseLocal: true, UseRemoteLibrary: true}

	assert.Equal(t, []SourceKind{SourceLocal, SourceRemoteLibrary, SourceAdHoc}, sel.Selected())
	assert.True(t, sel.Any())
}

func TestSourceSelection_Empty(t *testing.T) {
	var sel SourceSelection

	assert.Empty(t, sel.Selected())
	assert.False(t, sel.Any())
}

func TestSourceKind_IsValid(t *testing.T) {
	tests := []struct {
		kind SourceKind
		want bool
	}{
		{SourceLocal, true},
		{SourceRemoteLibrary, true},
		{SourceAdHoc, true},
		{SourceKind("ftp"), false},
		{SourceKind(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.IsValid())
		})
	}
}

func TestSourceKind_Description(t *testing.T) {
	assert.Equal(t, "Local folders", SourceLocal.Description())
	assert.Equal(t, "Unknown", SourceKind("other").Description())
}

func TestOperation(t *testing.T) {
	assert.True(t, OperationCreate.IsValid())
	assert.False(t, OperationCreate.NeedsExisting())
	assert.True(t, OperationReplace.NeedsExisting())
	assert.True(t, OperationAppend.NeedsExisting())
	assert.False(t, Operation("merge").IsValid())
}
