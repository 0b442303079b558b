// Package stencil provides a text template engine for test reports.
//
// Stencil renders documents such as HTML reports, e-mails or CSV exports from a
// template and a variable context. Templates can be themed, localized and can
// extend a parent layout by overriding named blocks.
//
// # Quick Start
//
//	engine := stencil.New()
//
//	_, err := engine.Register("summary", `<h1>{{i18n:report.title}}</h1>
//	<p style="color: {{theme:success}}">{{passed}} / {{total}}</p>`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := stencil.NewContext(stencil.TemplateData{
//	    "passed": 41,
//	    "total":  42,
//	}).WithLocale("de")
//
//	result := engine.Render("summary", ctx)
//	if !result.Success {
//	    log.Fatal(result.Err())
//	}
//	fmt.Println(result.Output)
//
// # Template Syntax
//
// Variables:
//
//	{{name}}
//	{{suite.environment.browser}}
//
// Conditionals compare two operands with == or != or test one operand for
// truthiness. Booleans are themselves, strings, lists and maps must be non-empty
// and numbers are always true:
//
//	{{#if status == "failed"}}...{{else}}...{{/if}}
//	{{#unless cases}}No results{{/unless}}
//
// Loops expose the current item as this, its fields directly, and the loop
// variables @index, @first, @last and @total:
//
//	{{#each cases}}{{@index}}. {{name}}: {{status}}{{/each}}
//
// Helpers take space-separated arguments; quoted strings and numbers are
// literals, anything else is looked up in the context:
//
//	{{formatDate startedAt "dd.MM.yyyy HH:mm"}}
//	{{truncate message 80}}
//	{{divide passed total}}
//
// Theme and localization tokens:
//
//	{{theme:primary}}
//	{{i18n:status.passed}}
//
// Inheritance:
//
//	base:   <html><body>{{block:content}}</body></html>
//	report: {{extends "base"}}{{block content}}<h1>{{title}}</h1>{{/block}}
//
// # Rendering
//
// A render applies the theme, then localization, then merges the inheritance
// chain and finally evaluates directives. Rendering problems such as an
// unresolved variable or an unknown helper never abort a render: the directive is
// left in the output or expands to nothing and a warning is added to the
// RenderResult. A missing template, an inheritance cycle or an internal fault
// fail the render. With Config.StrictMode every warning fails the render.
//
// # Validation
//
// Validate reports unbalanced block directives, malformed tags and variables
// that may be undefined, without rendering:
//
//	report := stencil.Validate(content)
//	for _, issue := range report.Issues {
//	    fmt.Printf("%d:%d %s %s\n", issue.Location.Line, issue.Location.Column, issue.Code, issue.Message)
//	}
//
// # Configuration
//
// LoadConfig reads defaults, a TOML file and STENCIL_* environment variables:
//
//	store_capacity = 200
//	strict_mode = true
//	default_locale = "de"
package stencil
