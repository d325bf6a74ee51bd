// portalconv converts dungeon.sql INSERT statements into a scene file with
// one context per map and a portal entity per row.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ViewableGravy/better-ecs-sub001/internal/data"
	"github.com/rotisserie/eris"
	"github.com/spf13/pflag"
)

type Portal struct {
	SrcX       int
	SrcY       int
	SrcMapID   int
	DstX       int
	DstY       int
	DstMapID   int
	DstHeading int
	Note       string
}

// hotelMapBase is where instanced maps start; their portals need key logic
// the scene format has no place for.
const hotelMapBase = 16384

// Pattern: INSERT INTO `dungeon` VALUES ('32477', '32851', '0', '32669', '32802', '1', '4', 'note');
var insertRe = regexp.MustCompile(`VALUES\s*\(\s*'(-?\d+)'\s*,\s*'(-?\d+)'\s*,\s*'(-?\d+)'\s*,\s*'(-?\d+)'\s*,\s*'(-?\d+)'\s*,\s*'(-?\d+)'\s*,\s*'(-?\d+)'\s*,\s*'([^']*)'\s*\)`)

func main() {
	name := pflag.StringP("name", "n", "dungeon", "scene name")
	pflag.Parse()
	if pflag.NArg() < 2 {
		fmt.Fprintln(os.Stderr, "Usage: portalconv [--name scene] <dungeon.sql> <output.yaml>")
		os.Exit(1)
	}
	if err := run(*name, pflag.Arg(0), pflag.Arg(1)); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run(name, inPath, outPath string) error {
	in, err := os.Open(inPath)
	if err != nil {
		return eris.Wrap(err, "open dump")
	}
	defer in.Close()

	portals, err := parseDump(in)
	if err != nil {
		return err
	}
	f := buildScene(name, portals)
	if err := f.Validate(); err != nil {
		return err
	}
	out, err := f.Marshal()
	if err != nil {
		return err
	}
	header := fmt.Sprintf("# Scene %s, auto-generated from dungeon.sql (%d portals)\n", name, len(portals))
	if err := os.WriteFile(outPath, append([]byte(header), out...), 0o644); err != nil {
		return eris.Wrap(err, "write scene")
	}
	fmt.Printf("Wrote %d portals across %d contexts to %s\n", len(portals), len(f.Contexts), outPath)
	return nil
}

// parseDump extracts portal rows, skipping hotel destinations, sorted by
// source map then position.
func parseDump(r io.Reader) ([]Portal, error) {
	var portals []Portal
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 1024*1024)
	scanner.Buffer(buf, len(buf))

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, "INSERT INTO") {
			continue
		}
		m := insertRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		var n [7]int
		for i := range n {
			n[i], _ = strconv.Atoi(m[i+1])
		}
		if n[5] >= hotelMapBase {
			continue
		}
		portals = append(portals, Portal{
			SrcX: n[0], SrcY: n[1], SrcMapID: n[2],
			DstX: n[3], DstY: n[4], DstMapID: n[5],
			DstHeading: n[6], Note: m[8],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "scan dump")
	}

	sort.Slice(portals, func(i, j int) bool {
		if portals[i].SrcMapID != portals[j].SrcMapID {
			return portals[i].SrcMapID < portals[j].SrcMapID
		}
		if portals[i].SrcX != portals[j].SrcX {
			return portals[i].SrcX < portals[j].SrcX
		}
		return portals[i].SrcY < portals[j].SrcY
	})
	return portals, nil
}

func mapContext(id int) string { return "map-" + strconv.Itoa(id) }

// buildScene emits one parentless context per map, ordered by map id, so the
// lowest map is the root.
func buildScene(name string, portals []Portal) *data.SceneFile {
	byMap := map[int]*data.ContextEntry{}
	var ids []int
	ensure := func(id int) *data.ContextEntry {
		if c, ok := byMap[id]; ok {
			return c
		}
		c := &data.ContextEntry{ID: mapContext(id)}
		byMap[id] = c
		ids = append(ids, id)
		return c
	}
	for _, p := range portals {
		src := ensure(p.SrcMapID)
		ensure(p.DstMapID)
		src.Entities = append(src.Entities, data.EntityEntry{
			Kind:   data.KindPortal,
			Name:   p.Note,
			X:      float64(p.SrcX),
			Y:      float64(p.SrcY),
			Target: mapContext(p.DstMapID),
			Spawn:  &data.PointEntry{X: float64(p.DstX), Y: float64(p.DstY)},
		})
	}
	sort.Ints(ids)

	f := &data.SceneFile{Name: name}
	for _, id := range ids {
		f.Contexts = append(f.Contexts, *byMap[id])
	}
	return f
}
