package atlas

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"cogentcore.org/core/base/ordmap"
)

var ErrMalformed = errors.New("atlas: malformed")

type Page struct {
	Name      string
	W, H      int
	Format    string
	MinFilter string
	MagFilter string
	Repeat    string
}

// Site 是页面里打包的一块区域，W H 为未旋转时的尺寸
type Site struct {
	Name         string
	Page         *Page
	Rotate       bool // 顺时针旋转 90 度打包
	X, Y         int
	W, H         int
	OrigW, OrigH int
	OffX, OffY   int // 裁剪偏移，OffY 从原图底部算起
	Index        int
}

type Data struct {
	Pages []*Page
	Sites *ordmap.Map[string, *Site]
}

func (d *Data) Site(name string) *Site {
	if d == nil {
		return nil
	}
	res, _ := d.Sites.ValueByKeyTry(name)
	return res
}

func (d *Data) Page(name string) *Page {
	if d == nil {
		return nil
	}
	for _, page := range d.Pages {
		if page.Name == name {
			return page
		}
	}
	return nil
}

func ParseFile(path string) (*Data, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("atlas: open %s: %w", path, err)
	}
	defer file.Close()
	return Parse(file)
}

// PagePaths 返回所有页面图片相对 atlas 文件所在目录的路径
func (d *Data) PagePaths(atlasPath string) map[string]string {
	dir := filepath.Dir(atlasPath)
	res := make(map[string]string, len(d.Pages))
	for _, page := range d.Pages {
		res[page.Name] = filepath.Join(dir, page.Name)
	}
	return res
}

// Parse 解析 libgdx 文本格式，支持多页面，空行分隔页面
func Parse(r io.Reader) (*Data, error) {
	res := &Data{Sites: ordmap.New[string, *Site]()}
	scanner := bufio.NewScanner(r)
	var page *Page
	var site *Site
	num := 0
	for scanner.Scan() {
		num++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			page, site = nil, nil
			continue
		}
		key, val, isProp := splitProp(line)
		switch {
		case page == nil && !isProp: // 页面名
			page = &Page{Name: strings.TrimSpace(line)}
			res.Pages = append(res.Pages, page)
		case page == nil:
			return nil, fmt.Errorf("%w: line %d: property before page", ErrMalformed, num)
		case !isProp: // 区域名
			site = &Site{Name: strings.TrimSpace(line), Page: page, Index: -1}
			if _, ok := res.Sites.ValueByKeyTry(site.Name); !ok {
				res.Sites.Add(site.Name, site)
			}
		case site == nil:
			if err := page.parseProp(key, val); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, num, err)
			}
		default:
			if err := site.parseProp(key, val); err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, num, err)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("atlas: read: %w", err)
	}
	for _, item := range res.Sites.Order {
		if item.Value.OrigW == 0 && item.Value.OrigH == 0 { // 没有裁剪信息时原始尺寸等于打包尺寸
			item.Value.OrigW, item.Value.OrigH = item.Value.W, item.Value.H
		}
	}
	return res, nil
}

func splitProp(line string) (string, string, bool) {
	key, val, ok := strings.Cut(line, ":")
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), val, true
}

func (p *Page) parseProp(key, val string) error {
	switch key {
	case "size":
		size, err := parseIntList(val, 2)
		if err != nil {
			return err
		}
		p.W, p.H = size[0], size[1]
	case "format":
		p.Format = strings.TrimSpace(val)
	case "filter":
		filter := parseStrList(val)
		if len(filter) != 2 {
			return fmt.Errorf("filter %q", val)
		}
		p.MinFilter, p.MagFilter = filter[0], filter[1]
	case "repeat":
		p.Repeat = strings.TrimSpace(val)
	}
	return nil
}

func (s *Site) parseProp(key, val string) error {
	switch key {
	case "rotate":
		val = strings.TrimSpace(val)
		if val == "90" {
			s.Rotate = true
			return nil
		}
		rotate, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("rotate %q", val)
		}
		s.Rotate = rotate
	case "xy":
		xy, err := parseIntList(val, 2)
		if err != nil {
			return err
		}
		s.X, s.Y = xy[0], xy[1]
	case "size":
		size, err := parseIntList(val, 2)
		if err != nil {
			return err
		}
		s.W, s.H = size[0], size[1]
	case "bounds": // 4.x 把 xy 与 size 合并
		bounds, err := parseIntList(val, 4)
		if err != nil {
			return err
		}
		s.X, s.Y, s.W, s.H = bounds[0], bounds[1], bounds[2], bounds[3]
	case "orig":
		orig, err := parseIntList(val, 2)
		if err != nil {
			return err
		}
		s.OrigW, s.OrigH = orig[0], orig[1]
	case "offset":
		offset, err := parseIntList(val, 2)
		if err != nil {
			return err
		}
		s.OffX, s.OffY = offset[0], offset[1]
	case "offsets": // 4.x 把 offset 与 orig 合并
		offsets, err := parseIntList(val, 4)
		if err != nil {
			return err
		}
		s.OffX, s.OffY, s.OrigW, s.OrigH = offsets[0], offsets[1], offsets[2], offsets[3]
	case "index":
		index, err := parseIntList(val, 1)
		if err != nil {
			return err
		}
		s.Index = index[0]
	}
	return nil
}

func parseStrList(val string) []string {
	items := strings.Split(val, ",")
	res := make([]string, 0, len(items))
	for _, item := range items {
		res = append(res, strings.TrimSpace(item))
	}
	return res
}

func parseIntList(val string, count int) ([]int, error) {
	items := parseStrList(val)
	if len(items) != count {
		return nil, fmt.Errorf("want %d values, got %q", count, val)
	}
	res := make([]int, 0, count)
	for _, item := range items {
		num, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("int %q", item)
		}
		res = append(res, num)
	}
	return res, nil
}
