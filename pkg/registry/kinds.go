package registry

import (
	"sync"

	"github.com/matzehuels/docdesigner/pkg/template"
)

// Categories shown in the palette.
const (
	CategoryHeader  = "Header & Info"
	CategoryContent = "Content"
	CategoryPayment = "Payment & Terms"
	CategoryLayout  = "Layout"
)

// Shared choice lists.
var (
	alignments   = []string{"left", "center", "right"}
	lineStyles   = []string{"solid", "dashed", "dotted"}
	imageSources = []string{"logo", "url"}
)

func boolField(key, label string, def bool) Field {
	return Field{Key: key, Type: FieldBoolean, Label: label, Default: def}
}

func textField(key, label, def string) Field {
	return Field{Key: key, Type: FieldText, Label: label, Default: def}
}

func textareaField(key, label, def string) Field {
	return Field{Key: key, Type: FieldTextarea, Label: label, Default: def}
}

func colorField(key, label, def string) Field {
	return Field{Key: key, Type: FieldColor, Label: label, Default: def}
}

func selectField(key, label, def string, options []string) Field {
	return Field{Key: key, Type: FieldSelect, Label: label, Default: def, Options: options}
}

func numberField(key, label string, def, lo, hi int) Field {
	return Field{Key: key, Type: FieldNumber, Label: label, Default: def, Min: &lo, Max: &hi}
}

// builtinKinds is the invoice module catalog.
func builtinKinds() []*Kind {
	return []*Kind{
		{
			Name: "companyInfo", DisplayName: "Company Info", Category: CategoryHeader,
			Description: "Your logo, company name and contact details",
			Icon:        "building", DefaultWidth: template.WidthHalf,
			Fields: []Field{
				boolField("showLogo", "Show Logo", true),
				boolField("showName", "Show Company Name", true),
				boolField("showAddress", "Show Address", true),
				boolField("showEmail", "Show Email", true),
				boolField("showPhone", "Show Phone", false),
				boolField("showTaxNumber", "Show Tax Number", false),
			},
		},
		{
			Name: "clientInfo", DisplayName: "Client Info", Category: CategoryHeader,
			Description: "Billing address of the client",
			Icon:        "user", DefaultWidth: template.WidthHalf,
			Fields: []Field{
				textField("label", "Section Label", "Bill To"),
				boolField("showCompany", "Show Company", true),
				boolField("showContact", "Show Contact Name", true),
				boolField("showAddress", "Show Address", true),
				boolField("showEmail", "Show Email", false),
			},
		},
		{
			Name: "invoiceHeader", DisplayName: "Invoice Header", Category: CategoryHeader,
			Description: "Document title, number and dates",
			Icon:        "document", DefaultWidth: template.WidthFull,
			Fields: []Field{
				textField("title", "Title", "INVOICE"),
				colorField("titleColor", "Title Color", "#8B5CF6"),
				selectField("alignment", "Alignment", "right", alignments),
				boolField("showInvoiceNumber", "Show Invoice Number", true),
				boolField("showDate", "Show Issue Date", true),
				boolField("showDueDate", "Show Due Date", true),
			},
		},
		{
			Name: "projectInfo", DisplayName: "Project Info", Category: CategoryHeader,
			Description: "Project name, reference and shoot dates",
			Icon:        "film", DefaultWidth: template.WidthFull,
			Fields: []Field{
				boolField("showProjectName", "Show Project Name", true),
				boolField("showReference", "Show PO / Reference", true),
				boolField("showDates", "Show Project Dates", true),
				colorField("backgroundColor", "Background", "#F8FAFC"),
			},
		},
		{
			Name: "lineItems", DisplayName: "Line Items", Category: CategoryContent,
			Description: "Table of billed items",
			Icon:        "table", DefaultWidth: template.WidthFull,
			Fields: []Field{
				boolField("showQuantity", "Show Quantity", true),
				boolField("showUnitPrice", "Show Unit Price", true),
				boolField("showDescription", "Show Description", true),
				boolField("groupBySection", "Group by Section", false),
				colorField("headerBackground", "Header Background", "#8B5CF6"),
				colorField("headerTextColor", "Header Text", "#FFFFFF"),
				colorField("alternateRowColor", "Alternate Row", "#F8FAFC"),
			},
		},
		{
			Name: "totals", DisplayName: "Totals", Category: CategoryContent,
			Description: "Subtotal, discount, tax and grand total",
			Icon:        "calculator", DefaultWidth: template.WidthHalf,
			Fields: []Field{
				boolField("showSubtotal", "Show Subtotal", true),
				boolField("showDiscount", "Show Discount", true),
				boolField("showTax", "Show Tax", true),
				textField("taxLabel", "Tax Label", "VAT"),
				colorField("totalBackground", "Total Background", "#8B5CF6"),
				colorField("totalTextColor", "Total Text", "#FFFFFF"),
			},
		},
		{
			Name: "customText", DisplayName: "Custom Text", Category: CategoryContent,
			Description: "Free-form paragraph",
			Icon:        "text", DefaultWidth: template.WidthFull,
			Fields: []Field{
				textareaField("text", "Text", "Thank you for your business."),
				selectField("alignment", "Alignment", "left", alignments),
				numberField("fontSize", "Font Size", 10, 6, 32),
				colorField("textColor", "Text Color", "#374151"),
				colorField("backgroundColor", "Background", "transparent"),
			},
		},
		{
			Name: "bankDetails", DisplayName: "Bank Details", Category: CategoryPayment,
			Description: "Account details for payment",
			Icon:        "bank", DefaultWidth: template.WidthHalf,
			Fields: []Field{
				textField("label", "Section Label", "Bank Details"),
				colorField("labelColor", "Label Color", "#8B5CF6"),
				boolField("showIban", "Show IBAN", true),
				boolField("showSwift", "Show SWIFT/BIC", true),
				boolField("showSortCode", "Show Sort Code", false),
			},
		},
		{
			Name: "paymentTerms", DisplayName: "Payment Terms", Category: CategoryPayment,
			Description: "When and how payment is due",
			Icon:        "clock", DefaultWidth: template.WidthHalf,
			Fields: []Field{
				textField("label", "Section Label", "Payment Terms"),
				colorField("labelColor", "Label Color", "#8B5CF6"),
				textareaField("text", "Terms", "Payment due within 30 days of invoice date."),
				numberField("dueDays", "Due In (days)", 30, 0, 120),
			},
		},
		{
			Name: "termsConditions", DisplayName: "Terms & Conditions", Category: CategoryPayment,
			Description: "Contractual small print",
			Icon:        "scale", DefaultWidth: template.WidthFull,
			Fields: []Field{
				textField("label", "Section Label", "Terms & Conditions"),
				colorField("labelColor", "Label Color", "#8B5CF6"),
				textareaField("text", "Text", ""),
				numberField("fontSize", "Font Size", 8, 6, 14),
			},
		},
		{
			Name: "signature", DisplayName: "Signature", Category: CategoryPayment,
			Description: "Sign-off lines",
			Icon:        "pen", DefaultWidth: template.WidthFull,
			Fields: []Field{
				textField("preparedByLabel", "Prepared By Label", "Prepared By"),
				boolField("showAcceptedBy", "Show Accepted By", true),
				textField("acceptedByLabel", "Accepted By Label", "Accepted By"),
				boolField("showDate", "Show Date Line", true),
			},
		},
		{
			Name: "divider", DisplayName: "Divider", Category: CategoryLayout,
			Description: "Horizontal rule",
			Icon:        "minus", DefaultWidth: template.WidthFull,
			Fields: []Field{
				numberField("thickness", "Thickness", 1, 1, 10),
				colorField("color", "Color", "#E5E7EB"),
				selectField("style", "Style", "solid", lineStyles),
				numberField("marginTop", "Space Above", 10, 0, 60),
				numberField("marginBottom", "Space Below", 10, 0, 60),
			},
		},
		{
			Name: "spacer", DisplayName: "Spacer", Category: CategoryLayout,
			Description: "Vertical whitespace",
			Icon:        "arrows-vertical", DefaultWidth: template.WidthFull,
			Fields: []Field{
				numberField("height", "Height", 20, 5, 200),
			},
		},
		{
			Name: "image", DisplayName: "Image", Category: CategoryLayout,
			Description: "Logo or remote image",
			Icon:        "photo", DefaultWidth: template.WidthQuarter,
			Fields: []Field{
				selectField("source", "Source", "logo", imageSources),
				textField("url", "Image URL", ""),
				numberField("maxHeight", "Max Height", 60, 10, 300),
				selectField("alignment", "Alignment", "left", alignments),
			},
		},
		{
			Name: "footer", DisplayName: "Footer", Category: CategoryLayout,
			Description: "Closing line and page numbers",
			Icon:        "footer", DefaultWidth: template.WidthFull,
			Fields: []Field{
				textField("text", "Footer Text", "Thank you for your business!"),
				colorField("textColor", "Text Color", "#9CA3AF"),
				selectField("alignment", "Alignment", "center", alignments),
				boolField("showPageNumbers", "Show Page Numbers", true),
			},
		},
	}
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in invoice module registry.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = New(builtinKinds()...)
	})
	return defaultReg
}
