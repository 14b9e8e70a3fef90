// Package ingest gates uploads before any model call: only documents that
// actually parse as PDFs proceed, so a bad upload never costs an API call.
package ingest

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/joseph-ayodele/cim-tables/internal/common"
)

var pdfMagic = []byte("%PDF-")

// DocumentInfo describes a recognized input document.
type DocumentInfo struct {
	PageCount int
}

// RecognizePDF verifies that content is a structurally valid PDF. It returns
// an INPUT_REJECTED AppError for anything else; content-type headers from
// the client are hints only and are never trusted on their own.
func RecognizePDF(content []byte) (*DocumentInfo, error) {
	if len(content) == 0 {
		return nil, common.Rejected("empty document", nil)
	}
	if !bytes.HasPrefix(content, pdfMagic) {
		return nil, common.Rejected("not a PDF document", nil)
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(content), conf)
	if err != nil {
		return nil, common.Rejected("invalid PDF document", fmt.Errorf("pdfcpu read: %w", err))
	}
	return &DocumentInfo{PageCount: ctx.PageCount}, nil
}
