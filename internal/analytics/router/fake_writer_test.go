package router

import (
	"context"

	"github.com/qrgenpro/qrgen-backend/internal/analytics/types"
)

type fakeWriter struct {
	scans      []types.ScanEventRow
	codeEvents []types.CodeEventRow
	err        error
}

func (f *fakeWriter) InsertScan(_ context.Context, row types.ScanEventRow) error {
	if f.err != nil {
		return f.err
	}
	f.scans = append(f.scans, row)
	return nil
}

func (f *fakeWriter) InsertCodeEvent(_ context.Context, row types.CodeEventRow) error {
	if f.err != nil {
		return f.err
	}
	f.codeEvents = append(f.codeEvents, row)
	return nil
}
