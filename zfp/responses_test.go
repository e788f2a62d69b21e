package zfp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func statusFields(set map[int]bool) []string {
	fields := make([]string, 38)
	for i := range fields {
		if set[i] {
			fields[i] = "1"
		} else {
			fields[i] = "0"
		}
	}
	return fields
}

func TestDecodeStatus(t *testing.T) {
	// Bit 7 is no-paper, bit 15 is opened fiscal receipt.
	st, err := decodeStatus(statusFields(map[int]bool{7: true, 15: true}))
	require.NoError(t, err)
	assert.True(t, st.NoPaper)
	assert.True(t, st.OpenedFiscalReceipt)
	assert.False(t, st.OpenedNonFiscalReceipt)

	assert.Equal(t, []string{
		"Printer_not_ready_or_no_paper",
		"Opened_Fiscal_Receipt",
	}, st.Raised())
}

func TestDecodeStatusRejectsShortReply(t *testing.T) {
	_, err := decodeStatus(statusFields(nil)[:10])
	assert.Error(t, err)
}

func TestDecodeStatusRejectsBadFlag(t *testing.T) {
	fields := statusFields(nil)
	fields[3] = "yes"
	_, err := decodeStatus(fields)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Incorrect_time")
}

func TestFieldScannerReportsFieldName(t *testing.T) {
	sc := newScanner([]string{"42", "abc"})
	assert.Equal(t, 42, sc.int("LastReceiptNum"))
	sc.int("TotalReceiptCounter")
	err := sc.finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TotalReceiptCounter")
}
