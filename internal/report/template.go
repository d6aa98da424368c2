package report

// TemplateFileName is the download name of the CSV import template.
const TemplateFileName = "users-template.csv"

// TemplateCSV is the fixed import template: the five recognized columns
// plus one example row. It is a constant, never derived from stored data.
const TemplateCSV = "Name,Email,Address,About,Number\r\n" +
	"Rahim Uddin,rahim@example.com,Dhaka,Developer,01710000001\r\n"
