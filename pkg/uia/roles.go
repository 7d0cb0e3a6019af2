package uia

import "strings"

// 跨平台统一的控件类型名称（小写），选择器中的 role 使用这些值
const (
	RoleApplication = "application"
	RoleWindow      = "window"
	RoleButton      = "button"
	RoleEdit        = "edit"
	RoleText        = "text"
	RoleDesktop     = "desktop"
)

// windowsControlTypes UIA ControlTypeId (50000 起) 到统一名称
var windowsControlTypes = map[int]string{
	50000: "button",
	50001: "calendar",
	50002: "checkbox",
	50003: "combobox",
	50004: "edit",
	50005: "hyperlink",
	50006: "image",
	50007: "listitem",
	50008: "list",
	50009: "menu",
	50010: "menubar",
	50011: "menuitem",
	50012: "progressbar",
	50013: "radiobutton",
	50014: "scrollbar",
	50015: "slider",
	50016: "spinner",
	50017: "statusbar",
	50018: "tab",
	50019: "tabitem",
	50020: "text",
	50021: "toolbar",
	50022: "tooltip",
	50023: "tree",
	50024: "treeitem",
	50025: "custom",
	50026: "group",
	50027: "thumb",
	50028: "datagrid",
	50029: "dataitem",
	50030: "document",
	50031: "splitbutton",
	50032: "window",
	50033: "pane",
	50034: "header",
	50035: "headeritem",
	50036: "table",
	50037: "titlebar",
	50038: "separator",
	50039: "semanticzoom",
	50040: "appbar",
}

// WindowsControlTypeRole UIA 控件类型 ID 转统一名称
func WindowsControlTypeRole(id int) string {
	if r, ok := windowsControlTypes[id]; ok {
		return r
	}
	return "unknown"
}

// macRoles AXRole 到统一名称
var macRoles = map[string]string{
	"AXApplication":        "application",
	"AXWindow":             "window",
	"AXSheet":              "window",
	"AXDrawer":             "window",
	"AXButton":             "button",
	"AXMenuButton":         "button",
	"AXDisclosureTriangle": "button",
	"AXCheckBox":           "checkbox",
	"AXComboBox":           "combobox",
	"AXPopUpButton":        "combobox",
	"AXTextField":          "edit",
	"AXTextArea":           "edit",
	"AXSearchField":        "edit",
	"AXSecureTextField":    "edit",
	"AXLink":               "hyperlink",
	"AXImage":              "image",
	"AXList":               "list",
	"AXMenu":               "menu",
	"AXMenuBar":            "menubar",
	"AXMenuBarItem":        "menuitem",
	"AXMenuItem":           "menuitem",
	"AXProgressIndicator":  "progressbar",
	"AXBusyIndicator":      "progressbar",
	"AXRadioButton":        "radiobutton",
	"AXScrollBar":          "scrollbar",
	"AXSlider":             "slider",
	"AXIncrementor":        "spinner",
	"AXTabGroup":           "tab",
	"AXStaticText":         "text",
	"AXToolbar":            "toolbar",
	"AXHelpTag":            "tooltip",
	"AXOutline":            "tree",
	"AXBrowser":            "tree",
	"AXRow":                "dataitem",
	"AXCell":               "dataitem",
	"AXGroup":              "group",
	"AXRadioGroup":         "group",
	"AXSplitGroup":         "pane",
	"AXScrollArea":         "pane",
	"AXLayoutArea":         "pane",
	"AXWebArea":            "document",
	"AXTable":              "table",
	"AXGrid":               "table",
	"AXColumn":             "header",
	"AXSplitter":           "separator",
}

// MacRole AXRole 转统一名称，未知角色去掉 AX 前缀后转小写
func MacRole(axRole string) string {
	if r, ok := macRoles[axRole]; ok {
		return r
	}
	return strings.ToLower(strings.TrimPrefix(axRole, "AX"))
}

// atspiRoles AT-SPI 角色名到统一名称
var atspiRoles = map[string]string{
	"application":         "application",
	"desktop frame":       "desktop",
	"frame":               "window",
	"window":              "window",
	"dialog":              "window",
	"alert":               "window",
	"push button":         "button",
	"toggle button":       "button",
	"check box":           "checkbox",
	"combo box":           "combobox",
	"entry":               "edit",
	"password text":       "edit",
	"text":                "edit",
	"link":                "hyperlink",
	"image":               "image",
	"icon":                "image",
	"list item":           "listitem",
	"list":                "list",
	"list box":            "list",
	"menu":                "menu",
	"menu bar":            "menubar",
	"menu item":           "menuitem",
	"check menu item":     "menuitem",
	"radio menu item":     "menuitem",
	"progress bar":        "progressbar",
	"radio button":        "radiobutton",
	"scroll bar":          "scrollbar",
	"slider":              "slider",
	"spin button":         "spinner",
	"status bar":          "statusbar",
	"page tab list":       "tab",
	"page tab":            "tabitem",
	"label":               "text",
	"static":              "text",
	"tool bar":            "toolbar",
	"tool tip":            "tooltip",
	"tree":                "tree",
	"tree table":          "tree",
	"tree item":           "treeitem",
	"table cell":          "dataitem",
	"panel":               "pane",
	"filler":              "group",
	"grouping":            "group",
	"section":             "group",
	"document web":        "document",
	"document frame":      "document",
	"document text":       "document",
	"table":               "table",
	"table column header": "headeritem",
	"separator":           "separator",
	"scroll pane":         "pane",
	"split pane":          "pane",
	"title bar":           "titlebar",
}

// AtspiRole AT-SPI 角色名转统一名称，未知角色去掉空格
func AtspiRole(name string) string {
	if r, ok := atspiRoles[name]; ok {
		return r
	}
	return strings.ReplaceAll(strings.ToLower(name), " ", "")
}
