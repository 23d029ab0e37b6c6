package api

import (
	"errors"
	"net/http"

	"github.com/KaramelBytes/chartloom/internal/analysis"
	"github.com/KaramelBytes/chartloom/internal/chart"
	"github.com/KaramelBytes/chartloom/internal/dataset"
	"github.com/KaramelBytes/chartloom/internal/parser"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeFileEmpty       = "FILE_EMPTY"
	CodeInvalidFileType = "INVALID_FILE_TYPE"
	CodeParseError      = "PARSE_ERROR"
	CodeProcessingError = "PROCESSING_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeUnknownError    = "UNKNOWN_ERROR"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Code          string `json:"code"`
	Message       string `json:"message"`
	Detail        string `json:"detail"`
	Suggestion    string `json:"suggestion,omitempty"`
	CorrelationID string `json:"correlation_id,omitempty"`
}

type errorText struct {
	message, detail, suggestion string
}

var errorTexts = map[string]errorText{
	CodeFileTooLarge: {
		"Your file is too large",
		"The file exceeds the upload size limit.",
		"Split the file into smaller parts or export only the columns you need.",
	},
	CodeFileEmpty: {
		"Your file looks empty",
		"No data was found in the uploaded file.",
		"Make sure the file was saved with its rows and upload it again.",
	},
	CodeInvalidFileType: {
		"We need a CSV or Excel file",
		"Supported formats are .csv, .tsv, .xlsx and .xlsm.",
		"Export the sheet as CSV or Excel from your spreadsheet tool.",
	},
	CodeParseError: {
		"We could not read your file",
		"The file format looks corrupted or unexpected.",
		"Save the file again as a fresh CSV and check the column names for unusual characters.",
	},
	CodeProcessingError: {
		"Something went wrong while processing",
		"The data could not be analyzed.",
		"Check that the file has a header row and that data is organized in columns.",
	},
	CodeNotFound: {
		"Not found",
		"The requested resource does not exist.",
		"",
	},
	CodeUnknownError: {
		"Something unexpected happened",
		"The server hit an error it did not expect.",
		"Try again in a moment. If it keeps happening, try a different file.",
	},
}

// newError fills the stock texts for code and appends extra to the detail.
func newError(code, extra, correlationID string) ErrorResponse {
	txt, ok := errorTexts[code]
	if !ok {
		code, txt = CodeUnknownError, errorTexts[CodeUnknownError]
	}
	detail := txt.detail
	if extra != "" {
		detail += " " + extra
	}
	return ErrorResponse{Code: code, Message: txt.message, Detail: detail, Suggestion: txt.suggestion, CorrelationID: correlationID}
}

// classify maps pipeline errors to an HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, analysis.ErrFileTooLarge),
		errors.Is(err, dataset.ErrTooManyRows),
		errors.Is(err, dataset.ErrTooManyColumns),
		errors.Is(err, dataset.ErrCellTooLarge):
		return http.StatusRequestEntityTooLarge, CodeFileTooLarge
	case errors.Is(err, parser.ErrEmpty):
		return http.StatusBadRequest, CodeFileEmpty
	case errors.Is(err, parser.ErrUnsupported):
		return http.StatusBadRequest, CodeInvalidFileType
	case errors.Is(err, analysis.ErrParse),
		errors.Is(err, analysis.ErrNoData),
		errors.Is(err, dataset.ErrInvalidColumnName):
		return http.StatusBadRequest, CodeParseError
	case errors.Is(err, chart.ErrNoColumns):
		return http.StatusBadRequest, CodeProcessingError
	}
	return http.StatusInternalServerError, CodeUnknownError
}
