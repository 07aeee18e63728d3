package ports

import (
	"jurimetria/domain/inference"
)

// ReportWriter exports a finished analysis report. The core hands over plain
// finalized structures and has no dependency on the export format.
type ReportWriter interface {
	Write(path string, report *inference.Report) error
}
