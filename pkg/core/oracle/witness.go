package oracle

import (
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/sanonone/castchain/pkg/core/types"
)

// Node ids pack the entity id with its kind in the low two bits, so that a
// film and a series sharing a provider id stay distinct nodes.
const (
	kindActor  int64 = 0
	kindFilm   int64 = 1
	kindSeries int64 = 2
)

func actorNode(id int64) int64 { return id<<2 | kindActor }

func mediaNode(id int64, c types.Category) int64 {
	if c == types.Series {
		return id<<2 | kindSeries
	}
	return id<<2 | kindFilm
}

// explored is the part of the actor/media graph observed during one
// classification. It only serves witness extraction.
type explored struct {
	g     *simple.UndirectedGraph
	links map[int64]types.Link
}

func newExplored() *explored {
	return &explored{g: simple.NewUndirectedGraph(), links: make(map[int64]types.Link)}
}

func (e *explored) node(id int64, l types.Link) simple.Node {
	if e.g.Node(id) == nil {
		e.g.AddNode(simple.Node(id))
	}
	if old, ok := e.links[id]; !ok || (old.Name == "" && l.Name != "") {
		e.links[id] = l
	}
	return simple.Node(id)
}

func (e *explored) connect(actor types.Link, media types.Link) {
	a := e.node(actorNode(actor.ID), actor)
	m := e.node(mediaNode(media.ID, media.Category), media)
	e.g.SetEdge(e.g.NewEdge(a, m))
}

// addFilmography records one actor's credits.
func (e *explored) addFilmography(f types.Filmography) {
	actor := types.Link{Kind: types.LinkActor, ID: f.ActorID}
	for _, c := range f.Credits {
		e.connect(actor, types.Link{
			Kind:     types.LinkMedia,
			ID:       c.Media.ID,
			Name:     c.Media.Title,
			Category: c.Media.Category,
		})
	}
}

// addCast records the members of one cast list.
func (e *explored) addCast(cl types.CastList) {
	media := types.Link{Kind: types.LinkMedia, ID: cl.MediaID, Category: cl.Category}
	for _, m := range cl.Cast {
		e.connect(types.Link{Kind: types.LinkActor, ID: m.ID, Name: m.Name}, media)
	}
}

// witness returns a shortest observed path from start to end, alternating
// actor and media links, or nil when none was observed.
func (e *explored) witness(start, end int64) []types.Link {
	from, to := actorNode(start), actorNode(end)
	if e.g.Node(from) == nil || e.g.Node(to) == nil {
		return nil
	}
	nodes, _ := path.DijkstraFrom(simple.Node(from), e.g).To(to)
	if len(nodes) == 0 {
		return nil
	}
	out := make([]types.Link, len(nodes))
	for i, n := range nodes {
		out[i] = e.links[n.ID()]
	}
	return out
}
