package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "date-iterator", NameDateAndIterator.String())
	assert.Equal(t, "older", OverwriteIfSourceOlder.String())
	assert.Equal(t, "XMP", SourceXmpMetadataDate.String())
	assert.Equal(t, "Keep", ActionKeep.String())
	assert.Equal(t, "destination-create", KindDestinationCreate.String())
}

func TestEnumStrings_OutOfRange(t *testing.T) {
	assert.NotPanics(t, func() {
		assert.Equal(t, "FileNameMode(7)", FileNameMode(7).String())
		assert.Equal(t, "OverwritePolicy(-1)", OverwritePolicy(-1).String())
		assert.Equal(t, "DateSource(9)", DateSource(9).String())
		assert.Equal(t, "Action(4)", Action(4).String())
		assert.Equal(t, "ErrorKind(-2)", ErrorKind(-2).String())
	})
}
