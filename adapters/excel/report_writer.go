package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"jurimetria/domain/inference"
	"jurimetria/internal/errors"
	"jurimetria/ports"
)

// Sheet names follow the Brazilian reporting convention the analysts consume
const (
	sheetSummary  = "Resumo_Executivo"
	sheetDetail   = "Processos_Detalhados"
	sheetByClass  = "Analise_por_Classe"
	sheetByYear   = "Analise_Temporal"
	sheetStats    = "Inferencia"
	sheetSurvival = "Curva_Sobrevivencia"
)

// ReportWriterImpl exports a finished report as an xlsx workbook
type ReportWriterImpl struct{}

// NewReportWriter creates an Excel report writer
func NewReportWriter() ports.ReportWriter {
	return &ReportWriterImpl{}
}

var _ ports.ReportWriter = (*ReportWriterImpl)(nil)

// Write renders every report section into its own sheet and saves the workbook
func (w *ReportWriterImpl) Write(path string, report *inference.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, report); err != nil {
		return errors.Wrap(err, "failed to write summary sheet")
	}
	if err := writeDetailSheet(f, report.Rows); err != nil {
		return errors.Wrap(err, "failed to write detail sheet")
	}
	if err := writeBreakdownSheet(f, sheetByClass, "Classe", report.ByClass); err != nil {
		return errors.Wrap(err, "failed to write class sheet")
	}
	if err := writeBreakdownSheet(f, sheetByYear, "Ano", report.ByYear); err != nil {
		return errors.Wrap(err, "failed to write temporal sheet")
	}
	if err := writeStatsSheet(f, report); err != nil {
		return errors.Wrap(err, "failed to write inference sheet")
	}
	if len(report.Survival) > 0 {
		if err := writeSurvivalSheet(f, report.Survival); err != nil {
			return errors.Wrap(err, "failed to write survival sheet")
		}
	}

	// The default Sheet1 was replaced by the summary sheet
	if idx, err := f.GetSheetIndex(sheetSummary); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", path)
	}
	return nil
}

func writeSummarySheet(f *excelize.File, report *inference.Report) error {
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return err
	}
	s := report.Summary

	type pair struct {
		label string
		value any
	}
	pairs := []pair{
		{"Execucao", report.RunID.String()},
		{"Gerado em", report.GeneratedAt.String()},
		{"Nivel de significancia (alfa)", report.Alpha},
		{"", nil},
		{"Total de processos", s.TotalProcesses},
		{"Com tutela de urgencia", s.WithRelief},
		{"Com acordo", s.WithSettlement},
		{"Tutela e acordo", s.ReliefAndSettlement},
		{"Com deferimento", s.WithGrant},
		{"Com indeferimento", s.WithDenial},
		{"Com sentenca", s.WithJudgment},
		{"", nil},
		{"Taxa de tutela", formatProportion(s.ReliefRate)},
		{"Taxa de acordo", formatProportion(s.SettlementRate)},
		{"Efetividade da tutela", formatProportion(s.ReliefEffectiveness)},
	}
	if s.GrantRate != nil {
		pairs = append(pairs, pair{"Taxa de deferimento", formatProportion(*s.GrantRate)})
	}
	pairs = append(pairs,
		pair{"", nil},
		pair{"Tramitacao media (dias)", s.ProcessingDays.Mean},
		pair{"Tramitacao mediana (dias)", s.ProcessingDays.Median},
	)
	if s.ReliefToSettlementDays != nil {
		pairs = append(pairs,
			pair{"Tutela ate acordo media (dias)", s.ReliefToSettlementDays.Mean},
			pair{"Tutela ate acordo mediana (dias)", s.ReliefToSettlementDays.Median},
		)
	}

	for i, p := range pairs {
		row := i + 1
		if p.label == "" {
			continue
		}
		if err := f.SetCellValue(sheetSummary, fmt.Sprintf("A%d", row), p.label); err != nil {
			return err
		}
		if err := f.SetCellValue(sheetSummary, fmt.Sprintf("B%d", row), p.value); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheetSummary, "A", "A", 34)
}

func writeDetailSheet(f *excelize.File, rows []inference.Row) error {
	if _, err := f.NewSheet(sheetDetail); err != nil {
		return err
	}

	headers := []string{
		"Numero do Processo", "Codigo da Classe", "Classe", "Ano de Ajuizamento",
		"Tutela", "Acordo", "Deferimento", "Indeferimento", "Sentenca",
		"Dias de Tramitacao", "Dias Tutela ate Acordo",
	}
	if err := writeHeader(f, sheetDetail, headers); err != nil {
		return err
	}

	for i, r := range rows {
		values := []any{
			r.Number.String(), r.ClassCode, r.ClassName, r.FilingYear,
			simNao(r.HasRelief), simNao(r.HasSettlement),
			simNao(r.HasGrant), simNao(r.HasDenial), simNao(r.HasJudgment),
			r.ProcessingDays, optionalDays(r.ReliefToSettlement),
		}
		if err := writeRow(f, sheetDetail, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheetDetail, "A", "A", 28)
}

func writeBreakdownSheet(f *excelize.File, sheet, keyLabel string, groups []inference.Breakdown) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}

	headers := []string{
		keyLabel, "Total", "Com Tutela", "Com Acordo", "Tutela e Acordo",
		"Taxa de Tutela", "Taxa de Acordo",
	}
	if err := writeHeader(f, sheet, headers); err != nil {
		return err
	}

	for i, g := range groups {
		values := []any{
			g.Key, g.TotalProcesses, g.WithRelief, g.WithSettlement,
			g.ReliefAndSettlement, g.ReliefRate, g.SettlementRate,
		}
		if err := writeRow(f, sheet, i+2, values); err != nil {
			return err
		}
	}
	return f.SetColWidth(sheet, "A", "A", 30)
}

func writeStatsSheet(f *excelize.File, report *inference.Report) error {
	if _, err := f.NewSheet(sheetStats); err != nil {
		return err
	}

	row := 1
	put := func(label string, value any) error {
		if err := f.SetCellValue(sheetStats, fmt.Sprintf("A%d", row), label); err != nil {
			return err
		}
		if value != nil {
			if err := f.SetCellValue(sheetStats, fmt.Sprintf("B%d", row), value); err != nil {
				return err
			}
		}
		row++
		return nil
	}

	for _, p := range []inference.Proportion{
		report.Summary.ReliefRate,
		report.Summary.SettlementRate,
		report.Summary.ReliefEffectiveness,
	} {
		if p.Trials == 0 {
			continue
		}
		if err := put(p.Metric, nil); err != nil {
			return err
		}
		if err := put("  estimativa", p.Estimate); err != nil {
			return err
		}
		if err := put(fmt.Sprintf("  IC Wilson %.0f%%", (1-p.Alpha)*100),
			fmt.Sprintf("[%.4f, %.4f]", p.Lower, p.Upper)); err != nil {
			return err
		}
	}

	if a := report.Association; a != nil {
		if err := put("Associacao tutela x acordo (Fisher exato)", nil); err != nil {
			return err
		}
		if err := put("  tabela 2x2 (A,B,C,D)",
			fmt.Sprintf("%d, %d, %d, %d", a.Table.A, a.Table.B, a.Table.C, a.Table.D)); err != nil {
			return err
		}
		or := fmt.Sprintf("%.4f", a.OddsRatio)
		if a.Corrected {
			or += " (correcao de Haldane-Anscombe)"
		}
		if err := put("  razao de chances", or); err != nil {
			return err
		}
		if err := put("  valor-p bilateral", a.PValue); err != nil {
			return err
		}
	}

	return f.SetColWidth(sheetStats, "A", "A", 40)
}

func writeSurvivalSheet(f *excelize.File, steps []inference.SurvivalStep) error {
	if _, err := f.NewSheet(sheetSurvival); err != nil {
		return err
	}

	headers := []string{
		"Dias", "Em Risco", "Eventos", "Censurados", "Sobrevivencia", "Variancia",
	}
	if err := writeHeader(f, sheetSurvival, headers); err != nil {
		return err
	}

	for i, s := range steps {
		values := []any{s.Time, s.AtRisk, s.Events, s.Censored, s.Survival, s.Variance}
		if err := writeRow(f, sheetSurvival, i+2, values); err != nil {
			return err
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, rowIdx int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx)
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}

func formatProportion(p inference.Proportion) string {
	return fmt.Sprintf("%.1f%% (IC %.0f%%: %.1f%%-%.1f%%)",
		p.Estimate*100, (1-p.Alpha)*100, p.Lower*100, p.Upper*100)
}

func simNao(b bool) string {
	if b {
		return "Sim"
	}
	return "Nao"
}

func optionalDays(d *int) any {
	if d == nil {
		return nil
	}
	return *d
}
