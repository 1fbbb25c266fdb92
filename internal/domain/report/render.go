package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

const reportTemplate = `<div id="report-results">
<table class="report">
 <thead>
  <tr>
   <th>Practitioner</th>
   <th>Date/Appt</th>
   <th>Patient</th>
   <th>ID</th>
   <th class="num">Chart</th>
   <th class="num">Encounter</th>
   <th class="num">Charges</th>
   <th class="num">Copays</th>
   <th>Billed</th>
   <th>Error</th>
  </tr>
 </thead>
 <tbody>
{{- range .Rows}}
{{- if .IsDetail}}
  <tr>
   <td>{{.Practitioner}}</td>
   <td>{{visitdate .Visit}}</td>
   <td>{{.Visit.PatientName}}</td>
   <td>{{.Visit.PatientID}}</td>
   <td class="num">{{.Visit.PatientID}}</td>
   <td class="num">{{encounter .Visit}}</td>
   <td class="num">{{bucks .Result.Charges}}</td>
   <td class="num">{{bucks .Result.Copays}}</td>
   <td>{{billed .Result.Billed}}</td>
   <td class="error">{{errhtml .Result.Errors}}</td>
  </tr>
{{- else if .IsSubtotal}}
  <tr class="report-totals">
   <td colspan="5">Totals for {{.Practitioner}}</td>
   <td class="num">{{.Encounters}}</td>
   <td class="num">{{bucks .Charges}}</td>
   <td class="num">{{bucks .Copays}}</td>
   <td colspan="2"></td>
  </tr>
{{- else}}
  <tr class="report-totals">
   <td colspan="5">Grand Totals</td>
   <td class="num">{{.Encounters}}</td>
   <td class="num">{{bucks .Charges}}</td>
   <td class="num">{{bucks .Copays}}</td>
   <td colspan="2"></td>
  </tr>
{{- end}}
{{- end}}
 </tbody>
</table>
</div>
`

const placeholderHTML = `<div class="text">Please input search criteria above, and click Submit to view results.</div>
`

// Renderer emits the report as an HTML table. Zero money amounts render as
// blank cells; totals rows still include them in the accumulated figures.
type Renderer struct {
	tmpl       *template.Template
	symbol     string
	dateFormat string
}

func NewRenderer(currencySymbol, dateFormat string) *Renderer {
	r := &Renderer{symbol: currencySymbol, dateFormat: dateFormat}
	r.tmpl = template.Must(template.New("report").Funcs(template.FuncMap{
		"bucks":     r.bucks,
		"visitdate": r.visitDate,
		"encounter": encounterCell,
		"billed":    billedCell,
		"errhtml":   errHTML,
	}).Parse(reportTemplate))
	return r
}

// Render writes the report table.
func (r *Renderer) Render(w io.Writer, rep *Report) error {
	return r.tmpl.Execute(w, rep)
}

// RenderPlaceholder writes the prompt shown before any report has been run.
func (r *Renderer) RenderPlaceholder(w io.Writer) error {
	_, err := io.WriteString(w, placeholderHTML)
	return err
}

func (r *Renderer) bucks(c Cents) string {
	if c == 0 {
		return ""
	}
	return r.symbol + c.String()
}

func (r *Renderer) visitDate(v *ReconciledVisit) string {
	if v.AppointmentDate == nil {
		return v.EncounterDate.Format(r.dateFormat)
	}
	s := v.AppointmentDate.Format(r.dateFormat)
	if v.AppointmentTime != "" {
		s += " " + v.AppointmentTime
	}
	return s
}

func encounterCell(v *ReconciledVisit) string {
	if v.EncounterID == nil {
		return ""
	}
	return v.EncounterID.String()
}

func billedCell(billed bool) string {
	if billed {
		return "Y"
	}
	return ""
}

// errHTML joins the row's error texts with <br> separators. The texts come
// from the fixed taxonomy but are escaped anyway.
func errHTML(errs []ErrorKind) template.HTML {
	if len(errs) == 0 {
		return ""
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = template.HTMLEscapeString(e.String())
	}
	return template.HTML(strings.Join(parts, "<br>"))
}

// Title returns the printable date-range heading for the report.
func Title(rep *Report, dateFormat string) string {
	if rep.To == nil {
		return rep.From.Format(dateFormat)
	}
	return fmt.Sprintf("%s to %s", rep.From.Format(dateFormat), rep.To.Format(dateFormat))
}
