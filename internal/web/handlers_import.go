package web

import (
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/eventledger/internal/core"
)

// Multipart field names used by the UI.
const (
	sheetField    = "excelFile"
	snapshotField = "jsonFile"
)

type sheetImportResponse struct {
	Message string `json:"message"`
	core.SheetImportResult
}

type snapshotImportResponse struct {
	Message string `json:"message"`
	core.SnapshotImportResult
}

// handleImportSheet appends the rows of an uploaded .xlsx, .xls or .csv file.
func (s *Server) handleImportSheet(w http.ResponseWriter, r *http.Request) {
	file, header, cleanup, err := s.formFile(w, r, sheetField)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()
	defer file.Close()

	result, err := s.service.ImportSheet(withRequestMetadata(r), header.Filename, file)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, sheetImportResponse{
		Message:           fmt.Sprintf("%d개의 내역을 엑셀 파일에서 가져왔습니다.", result.Added),
		SheetImportResult: result,
	})
}

// handleImportSnapshot replaces the ledger with an uploaded backup.
func (s *Server) handleImportSnapshot(w http.ResponseWriter, r *http.Request) {
	file, _, cleanup, err := s.formFile(w, r, snapshotField)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer cleanup()
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, r, fmt.Errorf("%w: read upload: %v", core.ErrImportFailed, err))
		return
	}

	result, err := s.service.ImportSnapshot(withRequestMetadata(r), data)
	if err != nil {
		respondError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotImportResponse{
		Message: fmt.Sprintf("%d개의 이벤트와 %d개의 구분을 JSON 파일에서 가져왔습니다. 기존 데이터는 덮어쓰였습니다.",
			result.Events, result.Types),
		SnapshotImportResult: result,
	})
}

// handleExportSnapshot downloads both collections as an indented backup.
func (s *Server) handleExportSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, fileName := s.service.Export()
	data, err := snap.MarshalIndented()
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, fileName))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
