package datajud

import (
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"jurimetria/domain/core"
	"jurimetria/domain/court"
)

// dateLayouts covers the timestamp shapes the tribunals emit
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.000Z",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// mapProcess converts one Elasticsearch _source document into a court.Process
func mapProcess(source gjson.Result) (court.Process, error) {
	number, err := core.ParseProcessNumber(source.Get("numeroProcesso").String())
	if err != nil {
		return court.Process{}, fmt.Errorf("datajud: %w", err)
	}

	filing, err := parseDate(source.Get("dataAjuizamento").String())
	if err != nil {
		return court.Process{}, fmt.Errorf("datajud: %s: filing date: %w", number, err)
	}
	update, err := parseDate(source.Get("dataHoraUltimaAtualizacao").String())
	if err != nil {
		return court.Process{}, fmt.Errorf("datajud: %s: last update: %w", number, err)
	}

	p := court.Process{
		Number:         number,
		ClassCode:      int(source.Get("classe.codigo").Int()),
		ClassName:      source.Get("classe.nome").String(),
		CourtBody:      source.Get("orgaoJulgador.nome").String(),
		FilingDate:     filing,
		LastUpdateDate: update,
	}

	for _, subject := range source.Get("assuntos").Array() {
		if code := int(subject.Get("codigo").Int()); code > 0 {
			p.SubjectCodes = append(p.SubjectCodes, code)
		}
	}

	for _, mov := range source.Get("movimentos").Array() {
		date, err := parseDate(mov.Get("dataHora").String())
		if err != nil {
			// Sanitize drops implausible dates; an unparseable one is
			// equivalent and the movement is skipped here
			continue
		}
		p.Movements = append(p.Movements, court.Movement{
			Code: int(mov.Get("codigo").Int()),
			Name: mov.Get("nome").String(),
			Date: date,
		})
	}

	return p, nil
}

// parseDate tries the known tribunal timestamp layouts
func parseDate(s string) (core.Timestamp, error) {
	if s == "" {
		return core.Timestamp{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return core.NewTimestamp(t), nil
		}
	}
	return core.Timestamp{}, fmt.Errorf("unparseable date %q", s)
}
