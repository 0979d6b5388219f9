package portal

// Portal markup contract. The search form is JSF-rendered, so control ids
// carry a colon that must stay escaped in CSS selectors. These are the only
// selectors the crawler knows about; everything else on the page is ignored.
const (
	selDistrict = `#fpsReportForm\:district`
	selTaluk    = `#fpsReportForm\:taluk`
	selShop     = `#fpsReportForm\:fps`
	selSearch   = `#fpsReportForm\:searchButton`

	// Detail page.
	selDetailRoot = ".fps-detail-container"
	selDetailRow  = ".fps-detail-container .detail-row"
	selStatus     = `.shop-status, .status-indicator, span[class*="status"]`

	// Last-transaction table on the detail page. Cells render as
	// bill number, transaction number, date & time, amount.
	selTransactionRow = ".fps-detail-container table.transaction-history tbody tr"

	// The View link opens a PrimeFaces dialog whose bill table rows render
	// as sno, product, quantity, unit price, total, unit.
	selViewLink    = "a.link-view"
	selDialog      = ".ui-dialog"
	selDialogRow   = ".ui-dialog form#billForm table tbody tr"
	selDialogClose = ".ui-dialog .ui-dialog-titlebar-close"
)
