package nodes

import (
	"slices"

	"github.com/chazu/loam/pkg/attr"
	"github.com/chazu/loam/pkg/node"
)

// NoTag is the Receive selection shown while nothing is published.
const NoTag = "NO TAG AVAILABLE"

// BroadcastTag returns the tag a Broadcast node publishes under.
func BroadcastTag(n *node.Node) string {
	return n.GraphID + "/" + n.ID + "/" + portOutput
}

// ---------------------------------------------------------------------------
// Broadcast
// ---------------------------------------------------------------------------

func setupBroadcast(n *node.Node) {
	n.AddPort(node.In, portInput, node.Heightmap)
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.OnDetach = func(n *node.Node) {
		if n.Broadcast != nil {
			n.Broadcast.Unpublish(BroadcastTag(n))
		}
	}
}

// computeBroadcast passes its input through and publishes the output
// buffer. Without input the tag is withdrawn.
func computeBroadcast(n *node.Node) error {
	tag := BroadcastTag(n)
	in := heightmapIn(n, portInput)
	if in == nil {
		if n.Broadcast != nil {
			n.Broadcast.Unpublish(tag)
		}
		return n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	out.CopyFrom(in)
	if n.Broadcast == nil {
		n.Logger().Debug("no broadcaster, tag not published", "tag", tag)
		return nil
	}
	n.Broadcast.Publish(tag, out)
	return nil
}

// ---------------------------------------------------------------------------
// Receive
// ---------------------------------------------------------------------------

func setupReceive(n *node.Node) {
	n.AddPort(node.Out, portOutput, node.Heightmap)
	n.AddAttr("tag", attr.NewChoice([]string{NoTag}, NoTag))

	// published is the selected tag as last seen in the registry. A
	// selection that was never published (a project just loaded) stays
	// pending; one that was published and is then withdrawn is dropped.
	published := ""
	n.OnTags = func(n *node.Node, tags []string) bool {
		c := attr.MustGet[*attr.Choice](n.Attrs, "tag")
		prev, cur := published, c.Value()
		list := slices.Clone(tags)
		if cur != "" && cur != NoTag && cur != prev && !slices.Contains(tags, cur) {
			list = append(list, cur)
		}
		if len(list) == 0 {
			list = []string{NoTag}
		}
		changed := c.SetChoices(list)
		published = ""
		if slices.Contains(tags, c.Value()) {
			published = c.Value()
		}
		return changed || published != prev
	}
	n.OnBroadcast = func(n *node.Node, tag string) bool {
		return n.Attrs.Choice("tag") == tag
	}
}

// computeReceive copies the broadcast field into the graph's layout. An
// unknown tag reads as no data.
func computeReceive(n *node.Node) error {
	tag := n.Attrs.Choice("tag")
	if n.Broadcast == nil {
		return n.SetValue(portOutput, nil)
	}
	src := n.Broadcast.Lookup(tag)
	if src == nil {
		n.Logger().Debug("broadcast tag not available", "tag", tag)
		return n.SetValue(portOutput, nil)
	}
	out, err := n.EnsureHeightmap(portOutput)
	if err != nil {
		return err
	}
	out.CopyFrom(src)
	return nil
}
