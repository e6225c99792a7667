package chart

import (
	"fmt"
	"html"
	"strconv"
)

// Labeled is implemented by anything that can carry a two-line tooltip.
type Labeled interface {
	PrimaryLabel() string
	SecondaryLabel() string
}

// Highlight describes how a mark looks while hovered and how to restore it.
type Highlight struct {
	Fill        string  // resting fill
	HoverFill   string  // fill while hovered
	Radius      float64 // resting radius; 0 for marks without one
	HoverRadius float64
}

// pointHighlight and barHighlight are the two highlight styles in use.
func pointHighlight(fill string) Highlight {
	return Highlight{Fill: fill, HoverFill: HoverColor, Radius: pointRadius, HoverRadius: pointHoverRadius}
}

func barHighlight(fill string) Highlight {
	return Highlight{Fill: fill, HoverFill: HoverColor}
}

// HoverAttrs returns the SVG attributes that bind the shared hover behaviour to
// a mark group: tooltip text, restore values and pointer handlers.
func HoverAttrs(m Labeled, hl Highlight) []string {
	attrs := []string{
		`class="mark"`,
		attr("data-primary", m.PrimaryLabel()),
		attr("data-secondary", m.SecondaryLabel()),
		attr("data-fill", hl.Fill),
		attr("data-hover-fill", hl.HoverFill),
	}
	if hl.Radius > 0 {
		attrs = append(attrs,
			attr("data-r", strconv.FormatFloat(hl.Radius, 'f', -1, 64)),
			attr("data-hover-r", strconv.FormatFloat(hl.HoverRadius, 'f', -1, 64)))
	}
	return append(attrs,
		`onmouseover="tvHover(evt)"`,
		`onmousemove="tvMove(evt)"`,
		`onmouseout="tvLeave(evt)"`)
}

func attr(name, value string) string {
	return fmt.Sprintf(`%s="%s"`, name, html.EscapeString(value))
}

// HoverScript implements the pointer handlers referenced by HoverAttrs. It is
// embedded once per SVG document and once in the HTML page.
const HoverScript = `
function tvTooltip(evt) {
	var svg = evt.currentTarget.ownerSVGElement;
	return svg ? svg.querySelector(".tooltip") : null;
}
function tvShape(evt) {
	return evt.currentTarget.querySelector(".shape");
}
function tvMove(evt) {
	var tip = tvTooltip(evt);
	if (!tip || tip.getAttribute("visibility") === "hidden") return;
	var svg = evt.currentTarget.ownerSVGElement;
	var pt = svg.createSVGPoint();
	pt.x = evt.clientX;
	pt.y = evt.clientY;
	var p = pt.matrixTransform(svg.getScreenCTM().inverse());
	tip.setAttribute("transform", "translate(" + (p.x + 20) + "," + p.y + ")");
}
function tvHover(evt) {
	var g = evt.currentTarget, shape = tvShape(evt), tip = tvTooltip(evt);
	if (shape) {
		shape.setAttribute("fill", g.getAttribute("data-hover-fill"));
		if (g.hasAttribute("data-hover-r")) shape.setAttribute("r", g.getAttribute("data-hover-r"));
	}
	if (!tip) return;
	var lines = tip.querySelectorAll("tspan");
	lines[0].textContent = g.getAttribute("data-primary");
	lines[1].textContent = g.getAttribute("data-secondary");
	var box = tip.querySelector("text").getBBox();
	var bg = tip.querySelector("rect");
	bg.setAttribute("width", box.width + 12);
	bg.setAttribute("height", box.height + 8);
	tip.setAttribute("visibility", "visible");
	tvMove(evt);
}
function tvLeave(evt) {
	var g = evt.currentTarget, shape = tvShape(evt), tip = tvTooltip(evt);
	if (shape) {
		shape.setAttribute("fill", g.getAttribute("data-fill"));
		if (g.hasAttribute("data-r")) shape.setAttribute("r", g.getAttribute("data-r"));
	}
	if (tip) tip.setAttribute("visibility", "hidden");
}
`
