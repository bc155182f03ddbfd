package sandbox

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"golang.org/x/net/html"
)

// elementCache keeps one proxy per node so identity comparisons hold.
type elementCache struct {
	byNode map[*html.Node]*goja.Object
	byObj  map[*goja.Object]*html.Node
}

func newElementCache() elementCache {
	return elementCache{
		byNode: make(map[*html.Node]*goja.Object),
		byObj:  make(map[*goja.Object]*html.Node),
	}
}

// injectDocument exposes the DOM as the document global
func (r *Runtime) injectDocument() error {
	doc := r.vm.NewObject()

	accessors := map[string]func() goja.Value{
		"body":            func() goja.Value { return r.element(r.dom.Body().First()) },
		"head":            func() goja.Value { return r.element(r.dom.Query("head").First()) },
		"documentElement": func() goja.Value { return r.element(r.dom.Query("html").First()) },
		"readyState":      func() goja.Value { return r.vm.ToValue(r.readyState) },
	}
	for name, get := range accessors {
		if err := r.defineGetter(doc, name, get); err != nil {
			return err
		}
	}

	err := doc.DefineAccessorProperty("title",
		r.vm.ToValue(func(goja.FunctionCall) goja.Value { return r.vm.ToValue(r.dom.Title()) }),
		r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			title := r.dom.Query("title").First()
			title.SetText(call.Argument(0).String())
			r.dom.RecordChange(DOMChange{Type: "set_text", Selector: "title", Value: call.Argument(0).String()})
			return goja.Undefined()
		}),
		goja.FLAG_TRUE, goja.FLAG_TRUE)
	if err != nil {
		return err
	}

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"getElementById": func(call goja.FunctionCall) goja.Value {
			want := call.Argument(0).String()
			return r.element(r.dom.Query("[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
				v, _ := s.Attr("id")
				return v == want
			}).First())
		},
		"querySelector": func(call goja.FunctionCall) goja.Value {
			return r.element(r.dom.Query(call.Argument(0).String()).First())
		},
		"querySelectorAll": func(call goja.FunctionCall) goja.Value {
			return r.elementList(r.dom.Query(call.Argument(0).String()))
		},
		"getElementsByClassName": func(call goja.FunctionCall) goja.Value {
			return r.elementList(r.dom.Query(classSelector(call.Argument(0).String())))
		},
		"getElementsByTagName": func(call goja.FunctionCall) goja.Value {
			return r.elementList(r.dom.Query(call.Argument(0).String()))
		},
		"createElement": func(call goja.FunctionCall) goja.Value {
			return r.element(r.dom.CreateElement(call.Argument(0).String()))
		},
		"addEventListener": func(call goja.FunctionCall) goja.Value {
			r.addListener("document", call)
			return goja.Undefined()
		},
		"removeEventListener": func(call goja.FunctionCall) goja.Value {
			r.removeListener("document", call)
			return goja.Undefined()
		},
	}
	for name, fn := range methods {
		if err := doc.Set(name, fn); err != nil {
			return err
		}
	}

	return r.vm.Set("document", doc)
}

// element returns the proxy for the first node of sel, or null
func (r *Runtime) element(sel *goquery.Selection) goja.Value {
	if sel.Length() == 0 {
		return goja.Null()
	}
	node := sel.Get(0)
	if obj, ok := r.elements.byNode[node]; ok {
		return obj
	}
	sel = sel.First()
	obj := r.newElement(node, sel)
	r.elements.byNode[node] = obj
	r.elements.byObj[obj] = node
	return obj
}

func (r *Runtime) elementList(sel *goquery.Selection) goja.Value {
	items := make([]interface{}, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		items = append(items, r.element(s))
	})
	return r.vm.NewArray(items...)
}

func (r *Runtime) newElement(node *html.Node, sel *goquery.Selection) *goja.Object {
	obj := r.vm.NewObject()
	target := fmt.Sprintf("node:%p", node)

	_ = obj.Set("tagName", strings.ToUpper(node.Data))
	_ = obj.Set("nodeName", strings.ToUpper(node.Data))
	_ = obj.Set("style", r.vm.NewObject())

	r.defineAttr(obj, sel, "id", "id")
	r.defineAttr(obj, sel, "className", "class")
	r.defineAttr(obj, sel, "value", "value")

	textGet := func() goja.Value { return r.vm.ToValue(sel.Text()) }
	textSet := func(v string) {
		sel.SetText(v)
		r.dom.RecordChange(DOMChange{Type: "set_text", Selector: describe(sel), Value: v})
	}
	r.defineProperty(obj, "textContent", textGet, textSet)
	r.defineProperty(obj, "innerText", textGet, textSet)
	r.defineProperty(obj, "innerHTML",
		func() goja.Value {
			s, _ := sel.Html()
			return r.vm.ToValue(s)
		},
		func(v string) {
			sel.SetHtml(v)
			r.dom.RecordChange(DOMChange{Type: "set_html", Selector: describe(sel), Value: v})
		})

	classList := r.vm.NewObject()
	_ = classList.Set("add", func(call goja.FunctionCall) goja.Value {
		for _, a := range call.Arguments {
			sel.AddClass(a.String())
		}
		return goja.Undefined()
	})
	_ = classList.Set("remove", func(call goja.FunctionCall) goja.Value {
		for _, a := range call.Arguments {
			sel.RemoveClass(a.String())
		}
		return goja.Undefined()
	})
	_ = classList.Set("contains", func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(sel.HasClass(call.Argument(0).String()))
	})
	_ = classList.Set("toggle", func(call goja.FunctionCall) goja.Value {
		name := call.Argument(0).String()
		sel.ToggleClass(name)
		return r.vm.ToValue(sel.HasClass(name))
	})
	_ = obj.Set("classList", classList)

	methods := map[string]func(goja.FunctionCall) goja.Value{
		"getAttribute": func(call goja.FunctionCall) goja.Value {
			if v, ok := sel.Attr(call.Argument(0).String()); ok {
				return r.vm.ToValue(v)
			}
			return goja.Null()
		},
		"hasAttribute": func(call goja.FunctionCall) goja.Value {
			_, ok := sel.Attr(call.Argument(0).String())
			return r.vm.ToValue(ok)
		},
		"setAttribute": func(call goja.FunctionCall) goja.Value {
			name, value := call.Argument(0).String(), call.Argument(1).String()
			sel.SetAttr(name, value)
			r.dom.RecordChange(DOMChange{Type: "set_attribute", Selector: describe(sel), Property: name, Value: value})
			return goja.Undefined()
		},
		"removeAttribute": func(call goja.FunctionCall) goja.Value {
			sel.RemoveAttr(call.Argument(0).String())
			return goja.Undefined()
		},
		"querySelector": func(call goja.FunctionCall) goja.Value {
			return r.element(sel.Find(call.Argument(0).String()).First())
		},
		"querySelectorAll": func(call goja.FunctionCall) goja.Value {
			return r.elementList(sel.Find(call.Argument(0).String()))
		},
		"appendChild": func(call goja.FunctionCall) goja.Value {
			child := call.Argument(0)
			childObj, ok := child.(*goja.Object)
			if !ok {
				panic(r.vm.NewTypeError("appendChild: parameter 1 is not of type 'Node'"))
			}
			childNode, ok := r.elements.byObj[childObj]
			if !ok {
				panic(r.vm.NewTypeError("appendChild: parameter 1 is not of type 'Node'"))
			}
			if childNode.Parent != nil {
				childNode.Parent.RemoveChild(childNode)
			}
			node.AppendChild(childNode)
			r.dom.RecordChange(DOMChange{Type: "append_child", Selector: describe(sel), Value: strings.ToLower(childNode.Data)})
			return child
		},
		"remove": func(goja.FunctionCall) goja.Value {
			if node.Parent != nil {
				node.Parent.RemoveChild(node)
			}
			return goja.Undefined()
		},
		"addEventListener": func(call goja.FunctionCall) goja.Value {
			r.addListener(target, call)
			return goja.Undefined()
		},
		"removeEventListener": func(call goja.FunctionCall) goja.Value {
			r.removeListener(target, call)
			return goja.Undefined()
		},
		"click": func(goja.FunctionCall) goja.Value {
			if err := r.click(obj, sel, target); err != nil {
				panic(r.vm.NewGoError(err))
			}
			return goja.Undefined()
		},
	}
	for name, fn := range methods {
		_ = obj.Set(name, fn)
	}
	return obj
}

// click dispatches a click to the element's listeners and inline handler.
func (r *Runtime) click(obj *goja.Object, sel *goquery.Selection, target string) error {
	ev := r.newEvent("click")
	_ = ev.Set("target", obj)
	if err := r.dispatch(target, "click", obj, ev); err != nil {
		return err
	}
	code, ok := sel.Attr("onclick")
	if !ok || strings.TrimSpace(code) == "" {
		return nil
	}
	handler, err := r.vm.RunString("(function(event) {\n" + code + "\n})")
	if err != nil {
		return r.handle(err)
	}
	fn, ok := goja.AssertFunction(handler)
	if !ok {
		return nil
	}
	return r.invoke(fn, obj, ev)
}

func (r *Runtime) defineGetter(obj *goja.Object, name string, get func() goja.Value) error {
	return obj.DefineAccessorProperty(name,
		r.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() }),
		nil, goja.FLAG_TRUE, goja.FLAG_TRUE)
}

func (r *Runtime) defineProperty(obj *goja.Object, name string, get func() goja.Value, set func(string)) {
	_ = obj.DefineAccessorProperty(name,
		r.vm.ToValue(func(goja.FunctionCall) goja.Value { return get() }),
		r.vm.ToValue(func(call goja.FunctionCall) goja.Value {
			set(call.Argument(0).String())
			return goja.Undefined()
		}),
		goja.FLAG_TRUE, goja.FLAG_TRUE)
}

func (r *Runtime) defineAttr(obj *goja.Object, sel *goquery.Selection, prop, attr string) {
	r.defineProperty(obj, prop,
		func() goja.Value {
			v, _ := sel.Attr(attr)
			return r.vm.ToValue(v)
		},
		func(v string) {
			sel.SetAttr(attr, v)
			r.dom.RecordChange(DOMChange{Type: "set_attribute", Selector: describe(sel), Property: attr, Value: v})
		})
}

func classSelector(names string) string {
	fields := strings.Fields(names)
	if len(fields) == 0 {
		return ""
	}
	return "." + strings.Join(fields, ".")
}
