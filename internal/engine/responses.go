// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/nexhq/nexchat/internal/erp"
	"github.com/nexhq/nexchat/internal/render"
)

// =============================================================================
// ROLE PROMPTS
// =============================================================================

// roleGroups splits roles into the three display sections.
type roleGroups struct {
	System []string
	User   []string
	Other  []string
}

// groupRoles buckets roles for display. Managers and administrators land
// in the system section, "* User" roles in the user section, the rest in
// other. Each bucket is sorted.
func groupRoles(roles []string) roleGroups {
	var g roleGroups
	for _, role := range roles {
		switch {
		case strings.Contains(role, "Manager") || strings.Contains(role, "Administrator"):
			g.System = append(g.System, role)
		case strings.Contains(role, "User"):
			g.User = append(g.User, role)
		default:
			g.Other = append(g.Other, role)
		}
	}
	sort.Strings(g.System)
	sort.Strings(g.User)
	sort.Strings(g.Other)
	return g
}

// buildRolePrompt renders the numbered role-selection prompt and returns
// it with the roles in prompt number order. The prompt carries the
// role-selection marker and backtick-wrapped numbers the client renders
// as buttons.
func buildRolePrompt(targetUser string, roles []string) (string, []string) {
	groups := groupRoles(roles)

	var b strings.Builder
	var numbered []string
	n := 1

	writeSection := func(title string, section []string) {
		if len(section) == 0 {
			return
		}
		fmt.Fprintf(&b, "**%s:**\n", title)
		for _, role := range section {
			fmt.Fprintf(&b, "`%d` **%s**\n", n, role)
			numbered = append(numbered, role)
			n++
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "🎯 **%s %s**\n\n", render.RoleSelectMarker, targetUser)
	writeSection("🔧 System & Management Roles", groups.System)
	writeSection("👤 User Roles", groups.User)
	writeSection("📂 Other Roles", groups.Other)

	b.WriteString("**💡 How to select:**\n")
	b.WriteString("• Type a **number** (e.g., `5`) for a single role\n")
	b.WriteString("• Type **multiple numbers** with commas (e.g., `1,3,7`)\n")
	b.WriteString("• Type the **role name** directly\n")
	fmt.Fprintf(&b, "• Type `%s` or `*` to assign **ALL** %d roles\n", render.AssignAllSentinel, len(numbered))
	fmt.Fprintf(&b, "• Type `%s` to cancel\n", render.CancelSentinel)

	return b.String(), numbered
}

// buildRoleList renders the plain grouped role listing for list_roles.
func buildRoleList(roles []string) string {
	groups := groupRoles(roles)

	var b strings.Builder
	fmt.Fprintf(&b, "**📋 Available Roles** (%d total)\n\n", len(roles))

	writeSection := func(title string, section []string) {
		if len(section) == 0 {
			return
		}
		fmt.Fprintf(&b, "**%s:**\n", title)
		for _, role := range section {
			fmt.Fprintf(&b, "• %s\n", role)
		}
		b.WriteString("\n")
	}
	writeSection("🔧 System & Management Roles", groups.System)
	writeSection("👤 User Roles", groups.User)
	writeSection("📂 Other Roles", groups.Other)

	b.WriteString("To assign a role, say something like: assign Sales User to jane@acme.io")
	return b.String()
}

// =============================================================================
// OPTION MARKUP
// =============================================================================

// optionEntry is one row of an option block under construction.
type optionEntry struct {
	Value  string
	Label  string
	Detail string
}

// optionMarkup assembles the trusted option container the client parses.
// All dynamic text is escaped here so document names or field values can
// never inject markup into the trusted render path.
type optionMarkup struct {
	b strings.Builder
}

func newOptionMarkup(title string) *optionMarkup {
	m := &optionMarkup{}
	m.b.WriteString(`<div class="nexchat-options-container">` + "\n")
	if title != "" {
		fmt.Fprintf(&m.b, `<div class="options-title">%s</div>`+"\n", html.EscapeString(title))
	}
	return m
}

func (m *optionMarkup) section(title string, entries []optionEntry) {
	fmt.Fprintf(&m.b, `<div class="options-section" data-title="%s">`+"\n", html.EscapeString(title))
	for _, e := range entries {
		m.b.WriteString(`<div class="option-item"`)
		if e.Value != "" {
			fmt.Fprintf(&m.b, ` data-value="%s"`, html.EscapeString(e.Value))
		}
		m.b.WriteString(">")
		m.b.WriteString(html.EscapeString(e.Label))
		if e.Detail != "" {
			fmt.Fprintf(&m.b, `<span class="option-detail">%s</span>`, html.EscapeString(e.Detail))
		}
		m.b.WriteString("</div>\n")
	}
	m.b.WriteString("</div>\n")
}

func (m *optionMarkup) String() string {
	return m.b.String() + "</div>"
}

// buildListOptions renders one page of documents as an option block,
// appending pagination actions when more pages exist.
func buildListOptions(doctype string, docs []*erp.Document, total, page, pageSize int) string {
	title := fmt.Sprintf("%s (%d found, page %d)", doctype, total, page+1)
	m := newOptionMarkup(title)

	var entries []optionEntry
	for _, doc := range docs {
		entries = append(entries, optionEntry{
			Value:  doc.Name,
			Label:  documentLabel(doc),
			Detail: doc.Name,
		})
	}
	m.section("Results", entries)

	var actions []optionEntry
	if (page+1)*pageSize < total {
		actions = append(actions, optionEntry{Value: "next_page", Label: "Next page ▸"})
	}
	if page > 0 {
		actions = append(actions, optionEntry{Value: "prev_page", Label: "◂ Previous page"})
	}
	if len(actions) > 0 {
		m.section("Actions", actions)
	}
	return m.String()
}

// buildSelectOptions renders the numbered choices for a Select field as a
// field container block.
func buildSelectOptions(field erp.FieldDef, choices []string, title string) string {
	var b strings.Builder
	b.WriteString(`<div class="nexchat-field-container">` + "\n")
	fmt.Fprintf(&b, `<div class="options-title">%s</div>`+"\n",
		html.EscapeString(title))
	fmt.Fprintf(&b, `<div class="options-section" data-title="%s">`+"\n",
		html.EscapeString(field.Label))
	for i, choice := range choices {
		fmt.Fprintf(&b, `<div class="option-item" data-value="%s">%s</div>`+"\n",
			html.EscapeString(choice),
			html.EscapeString(fmt.Sprintf("%d. %s", i+1, choice)))
	}
	b.WriteString("</div>\n</div>")
	return b.String()
}

// documentLabel picks the most human-readable field value for display.
func documentLabel(doc *erp.Document) string {
	for _, key := range []string{
		"customer_name", "supplier_name", "item_name", "lead_name",
		"description", "title", "name",
	} {
		if v := doc.Data[key]; v != "" {
			return v
		}
	}
	return doc.Name
}

// =============================================================================
// DOCUMENT DETAIL
// =============================================================================

// buildDocumentDetail renders a single document as markdown.
func buildDocumentDetail(dt *erp.Doctype, doc *erp.Document) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**📄 %s %s**\n\n", dt.Label, doc.Name)
	for _, f := range dt.Fields {
		v := doc.Data[f.Name]
		if v == "" {
			v = "—"
		}
		fmt.Fprintf(&b, "• **%s**: %s\n", f.Label, v)
	}
	fmt.Fprintf(&b, "\n_Created %s, last updated %s_",
		doc.CreatedAt.Format("2 Jan 2006"),
		doc.UpdatedAt.Format("2 Jan 2006"))
	return b.String()
}

// =============================================================================
// FIELD PROMPTS
// =============================================================================

// buildFieldPrompt asks for the next required field, carrying intro into the
// prompt so it survives either rendering. Select fields return option markup
// with the intro folded into the title; everything else a plain question.
func buildFieldPrompt(dt *erp.Doctype, field erp.FieldDef, intro string) (text string, options bool) {
	if field.Type == "Select" && field.Options != "" {
		title := fmt.Sprintf("Choose a %s", field.Label)
		if intro != "" {
			title = intro + " " + title
		}
		return buildSelectOptions(field, splitOptions(field.Options), title), true
	}
	prompt := fmt.Sprintf("What is the **%s** for this %s?", field.Label, dt.Label)
	if intro != "" {
		prompt = intro + "\n\n" + prompt
	}
	return prompt, false
}

// splitOptions parses the newline-separated Select choices.
func splitOptions(options string) []string {
	var out []string
	for _, line := range strings.Split(options, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// =============================================================================
// HELP
// =============================================================================

// buildHelp renders help text, scoped to a doctype when a topic is given.
func buildHelp(topic string, doctypes []string) string {
	var b strings.Builder
	if topic != "" {
		fmt.Fprintf(&b, "**Help: %s**\n\n", topic)
		fmt.Fprintf(&b, "• Create one: \"create a new %s\"\n", strings.ToLower(topic))
		fmt.Fprintf(&b, "• List them: \"show all %ss\"\n", strings.ToLower(topic))
		fmt.Fprintf(&b, "• Update one: \"update %s <name> set <field> to <value>\"\n", strings.ToLower(topic))
		fmt.Fprintf(&b, "• Delete one: \"delete %s <name>\"\n", strings.ToLower(topic))
		return b.String()
	}

	b.WriteString("**👋 I can help you manage your documents.**\n\n")
	b.WriteString("Try things like:\n")
	b.WriteString("• \"Create a new customer\"\n")
	b.WriteString("• \"Show all items\"\n")
	b.WriteString("• \"Update customer CUST-0001 set territory to EMEA\"\n")
	b.WriteString("• \"Assign Sales User role to jane@acme.io\"\n")
	b.WriteString("• \"Show all roles\"\n\n")
	fmt.Fprintf(&b, "Available document types: %s", strings.Join(doctypes, ", "))
	return b.String()
}
