package handler

import (
	"html/template"
	"net/http"

	"capledger/internal/ledger"
)

// CertificateRenderer produces the printable HTML share certificate.
type CertificateRenderer struct {
	tmpl *template.Template
}

func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{
		tmpl: template.Must(template.New("certificate").Parse(certificateTemplate)),
	}
}

type certificateData struct {
	CompanyName       string
	CertificateNumber string
	ShareholderName   string
	Shares            int64
	PricePerShare     string
	TotalValue        string
	IssuedAt          string
}

func (cr *CertificateRenderer) Render(w http.ResponseWriter, certificate ledger.Certificate, companyName string) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return cr.tmpl.Execute(w, certificateData{
		CompanyName:       companyName,
		CertificateNumber: certificate.CertificateNumber,
		ShareholderName:   certificate.ShareholderName,
		Shares:            certificate.Shares,
		PricePerShare:     certificate.PricePerShare.StringFixed(2),
		TotalValue:        certificate.TotalValue().StringFixed(2),
		IssuedAt:          certificate.IssuedAt.Format("January 2, 2006"),
	})
}

const certificateTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Share Certificate {{.CertificateNumber}}</title>
<style>
body { font-family: Georgia, serif; margin: 4em auto; max-width: 48em; }
.certificate { border: 6px double #2c3e50; padding: 3em; text-align: center; }
.number { font-size: 0.9em; color: #666; }
h1 { letter-spacing: 0.15em; }
.holder { font-size: 1.6em; margin: 1em 0; }
table { margin: 2em auto; border-collapse: collapse; }
td { padding: 0.4em 1.5em; border-bottom: 1px solid #ccc; }
</style>
</head>
<body>
<div class="certificate">
<p class="number">Certificate No. {{.CertificateNumber}}</p>
<h1>{{.CompanyName}}</h1>
<p>This certifies that</p>
<p class="holder">{{.ShareholderName}}</p>
<p>is the registered holder of <strong>{{.Shares}}</strong> fully paid shares</p>
<table>
<tr><td>Price per share</td><td>{{.PricePerShare}}</td></tr>
<tr><td>Total value</td><td>{{.TotalValue}}</td></tr>
<tr><td>Date of issue</td><td>{{.IssuedAt}}</td></tr>
</table>
</div>
</body>
</html>
`
