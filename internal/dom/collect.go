package dom

import (
	"errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// CollectRoots walks the tree breadth-first from its main document and
// returns every reachable root exactly once.
func CollectRoots(t *Tree) []*Root {
	seen := make(map[*html.Node]bool)
	queue := []*Root{t.Main()}
	var roots []*Root

	for len(queue) > 0 {
		r := queue[0]
		queue = queue[1:]
		if r == nil || seen[r.Node()] {
			continue
		}
		seen[r.Node()] = true
		roots = append(roots, r)

		r.Find("*").Each(func(_ int, s *goquery.Selection) {
			el := s.Get(0)
			if sr, ok := t.ShadowRoot(el); ok && !seen[sr.Node()] {
				queue = append(queue, sr)
			}
			if el.DataAtom != atom.Iframe {
				return
			}
			fr, err := t.FrameDocument(el)
			if err != nil {
				if !errors.Is(err, ErrFrameInaccessible) {
					log.Debug().Err(err).Msg("skipping frame")
				}
				return
			}
			if !seen[fr.Node()] {
				queue = append(queue, fr)
			}
		})
	}

	log.Debug().Int("roots", len(roots)).Msg("collected document roots")
	return roots
}
