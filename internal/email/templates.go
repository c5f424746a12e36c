package email

import (
	"fmt"
	"html/template"
	"strings"
)

type ConfirmationData struct {
	FullName   string
	OrderID    string
	Items      []LineData
	TotalCents int
}

type LineData struct {
	Name       string
	Quantity   int
	PriceCents int
	ImageURL   string
}

type ShippingData struct {
	FullName       string
	OrderID        string
	Carrier        string
	TrackingNumber string
	TrackingURL    string
	IsPartial      bool
	TotalShipments int
}

var confirmationTmpl = template.Must(template.New("confirmation").Funcs(funcs).Parse(`
<h1>Thanks for your order, {{.FullName}}!</h1>
<p>We received your order <strong>{{.OrderID}}</strong> and it is being prepared.</p>
<table>
{{range .Items}}
  <tr>
    {{if .ImageURL}}<td><img src="{{.ImageURL}}" alt="{{.Name}}" width="64"></td>{{end}}
    <td>{{.Name}} &times; {{.Quantity}}</td>
    <td>{{dollars .PriceCents}}</td>
  </tr>
{{end}}
</table>
<p>Order total: <strong>{{dollars .TotalCents}}</strong></p>
`))

var shippingTmpl = template.Must(template.New("shipping").Funcs(funcs).Parse(`
<h1>Your order is on the way, {{.FullName}}!</h1>
<p>Order <strong>{{.OrderID}}</strong> shipped via {{.Carrier}}.</p>
<p>Tracking number: <a href="{{.TrackingURL}}">{{.TrackingNumber}}</a></p>
{{if .IsPartial}}<p>This is 1 of {{.TotalShipments}} shipments &mdash; more packages are on the way.</p>{{end}}
`))

var funcs = template.FuncMap{
	"dollars": func(cents int) string {
		return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
	},
}

func RenderConfirmation(d ConfirmationData) (subject, html string, err error) {
	var b strings.Builder
	if err := confirmationTmpl.Execute(&b, d); err != nil {
		return "", "", err
	}
	return "Your Parcelworks order is confirmed", b.String(), nil
}

func RenderShipping(d ShippingData) (subject, html string, err error) {
	var b strings.Builder
	if err := shippingTmpl.Execute(&b, d); err != nil {
		return "", "", err
	}
	return "Your Parcelworks order has shipped", b.String(), nil
}
