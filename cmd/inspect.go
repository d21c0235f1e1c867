package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/spaghettifunk/rendergraph/engine/pipeline"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <pipeline>",
	Short: "Print the stages and the camera tag index of a pipeline document",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	_, p, err := loadDocument(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	writeStageTable(out, p)
	fmt.Fprintln(out)
	writeTagIndexTable(out, p.CameraTagToRenderTagMap())
	return nil
}

func writeStageTable(w io.Writer, p *pipeline.Pipeline) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"#", "Stage", "Clear", "Render methods", "Highest priority", "Camera tags", "Render tags"})
	for i, s := range p.Stages() {
		methods := make([]string, 0, len(s.RenderMethods()))
		for _, m := range s.RenderMethods() {
			name := fmt.Sprintf("%s(%d)", m.Name(), m.Priority())
			if m.IsExternal() {
				name += "*"
			}
			methods = append(methods, name)
		}
		table.Append([]string{
			fmt.Sprintf("%d", i),
			s.Name,
			fmt.Sprintf("%t", s.Clear),
			strings.Join(methods, " "),
			fmt.Sprintf("%d", s.HighestPriority()),
			strings.Join(s.CameraTags, ","),
			strings.Join(s.RenderTags, ","),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "TEXTURES", fmt.Sprintf("%d", len(p.Textures()))})
	table.Render()
}

func writeTagIndexTable(w io.Writer, index pipeline.TagIndex) {
	table := tablewriter.NewWriter(w)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Camera tag", "Stage sets", "Render tags"})
	for _, camera := range index.Cameras() {
		sets := make([]string, 0, len(index[camera]))
		for _, set := range index[camera] {
			sets = append(sets, "{"+strings.Join(set.Sorted(), ",")+"}")
		}
		table.Append([]string{
			camera,
			strings.Join(sets, " "),
			strings.Join(index.Union(camera).Sorted(), ","),
		})
	}
	table.Render()
}
