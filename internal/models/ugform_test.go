package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectListRoundTripThroughDriver(t *testing.T) {
	list := SubjectList{{Code: "CS-301", Name: "Databases", TheoryHours: 2, PracticalHours: 1, TotalCredits: 3}}
	raw, err := list.Value()
	require.NoError(t, err)

	var scanned SubjectList
	require.NoError(t, scanned.Scan(raw))
	assert.Equal(t, list, scanned)

	var empty SubjectList
	raw, err = empty.Value()
	require.NoError(t, err)
	assert.Equal(t, []byte("[]"), raw)
	require.Error(t, scanned.Scan(42))
}

func TestTerminalStatuses(t *testing.T) {
	assert.False(t, UGFormStatusSubmitted.Terminal())
	assert.False(t, UGFormStatusTutorApproved.Terminal())
	assert.True(t, UGFormStatusTutorRejected.Terminal())
	assert.True(t, UGFormStatusManagerApproved.Terminal())
	assert.True(t, UGFormStatusCollectorRejected.Terminal())
}

func TestPDFFlagsMark(t *testing.T) {
	var flags PDFFlags
	flags.Mark(PDFCopyAdvisor)
	assert.Equal(t, PDFFlags{Advisor: true}, flags)

	c, ok := ParsePDFCopy("director")
	require.True(t, ok)
	assert.Equal(t, PDFCopyDirector, c)
	_, ok = ParsePDFCopy("registrar")
	assert.False(t, ok)
}

func TestFeeStatusEdges(t *testing.T) {
	assert.True(t, FeeStatusPending.CanMoveTo(FeeStatusProcessing))
	assert.True(t, FeeStatusProcessing.CanMoveTo(FeeStatusApproved))
	assert.False(t, FeeStatusProcessing.CanMoveTo(FeeStatusPending))
	assert.False(t, FeeStatusApproved.CanMoveTo(FeeStatusRejected))
}
