package netio

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty/gocty"

	"github.com/voltspan/feederflow/pkg/model"
)

// Top-level layout of an .hcl network file: one optional network block
// carrying feeder-wide settings, then node and edge blocks labeled with
// their IDs.
var fileSchema = &hcl.BodySchema{
	Blocks: []hcl.BlockHeaderSchema{
		{Type: "network", LabelNames: []string{"name"}},
		{Type: "node", LabelNames: []string{"id"}},
		{Type: "edge", LabelNames: []string{"id"}},
	},
}

var networkSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "source_kv"},
	},
}

var nodeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "kind", Required: true},
		{Name: "name"},
		{Name: "x"},
		{Name: "y"},
		{Name: "base_kv"},
		{Name: "load_kva"},
		{Name: "power_factor"},
		{Name: "category"},
	},
}

var edgeSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "from", Required: true},
		{Name: "to", Required: true},
		{Name: "length_m", Required: true},
		{Name: "conductor"},
	},
}

func decodeHCL(filename string, src []byte) (*model.Network, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parsing %s: %s", filename, diags.Error())
	}

	content, diags := file.Body.Content(fileSchema)
	net := &model.Network{}

	for _, block := range content.Blocks {
		switch block.Type {
		case "network":
			net.Name = block.Labels[0]
			body, moreDiags := block.Body.Content(networkSchema)
			diags = append(diags, moreDiags...)
			diags = append(diags, floatAttr(body.Attributes, "source_kv", &net.SourceKV)...)

		case "node":
			nd := model.Node{ID: block.Labels[0]}
			body, moreDiags := block.Body.Content(nodeSchema)
			diags = append(diags, moreDiags...)
			var kind string
			diags = append(diags, stringAttr(body.Attributes, "kind", &kind)...)
			nd.Kind = model.NodeKind(strings.ToUpper(kind))
			diags = append(diags, stringAttr(body.Attributes, "name", &nd.Name)...)
			diags = append(diags, stringAttr(body.Attributes, "category", &nd.Category)...)
			diags = append(diags, floatAttr(body.Attributes, "x", &nd.X)...)
			diags = append(diags, floatAttr(body.Attributes, "y", &nd.Y)...)
			diags = append(diags, floatAttr(body.Attributes, "base_kv", &nd.BaseKV)...)
			diags = append(diags, floatAttr(body.Attributes, "load_kva", &nd.LoadKVA)...)
			diags = append(diags, floatAttr(body.Attributes, "power_factor", &nd.PowerFactor)...)
			net.Nodes = append(net.Nodes, nd)

		case "edge":
			e := model.Edge{ID: block.Labels[0]}
			body, moreDiags := block.Body.Content(edgeSchema)
			diags = append(diags, moreDiags...)
			diags = append(diags, stringAttr(body.Attributes, "from", &e.From)...)
			diags = append(diags, stringAttr(body.Attributes, "to", &e.To)...)
			diags = append(diags, stringAttr(body.Attributes, "conductor", &e.Conductor)...)
			diags = append(diags, floatAttr(body.Attributes, "length_m", &e.LengthM)...)
			net.Edges = append(net.Edges, e)
		}
	}

	if diags.HasErrors() {
		return nil, fmt.Errorf("decoding %s: %s", filename, diags.Error())
	}
	return net, nil
}

// floatAttr evaluates a literal numeric attribute into dst, leaving dst
// untouched when the attribute is absent.
func floatAttr(attrs hcl.Attributes, name string, dst *float64) hcl.Diagnostics {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return diags
	}
	if err := gocty.FromCtyValue(val, dst); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("invalid value for %s", name),
			Detail:   err.Error(),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return nil
}

func stringAttr(attrs hcl.Attributes, name string, dst *string) hcl.Diagnostics {
	attr, ok := attrs[name]
	if !ok {
		return nil
	}
	val, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return diags
	}
	if err := gocty.FromCtyValue(val, dst); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  fmt.Sprintf("invalid value for %s", name),
			Detail:   err.Error(),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return nil
}
