package stream

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/zoeyai/uiauto/pkg/recorder"
)

// EncodeEvent 事件转为 protobuf Struct，字段与 JSON 表示一致
func EncodeEvent(ev recorder.WorkflowEvent) (*structpb.Struct, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("序列化事件失败: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("序列化事件失败: %w", err)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("转换事件失败: %w", err)
	}
	return s, nil
}

// DecodeEvent 由 protobuf Struct 还原事件
func DecodeEvent(s *structpb.Struct) (recorder.WorkflowEvent, error) {
	var ev recorder.WorkflowEvent
	data, err := s.MarshalJSON()
	if err != nil {
		return ev, fmt.Errorf("解析事件失败: %w", err)
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return ev, fmt.Errorf("解析事件失败: %w", err)
	}
	return ev, nil
}

// Filter 订阅过滤条件，Types 为空表示全部类型
type Filter struct {
	Types []recorder.EventType
}

// Match 事件是否满足过滤条件
func (f Filter) Match(ev recorder.WorkflowEvent) bool {
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if t == ev.Type {
			return true
		}
	}
	return false
}

func (f Filter) toStruct() *structpb.Struct {
	types := make([]any, len(f.Types))
	for i, t := range f.Types {
		types[i] = string(t)
	}
	s, _ := structpb.NewStruct(map[string]any{"types": types})
	return s
}

func filterFromStruct(s *structpb.Struct) Filter {
	var f Filter
	if s == nil {
		return f
	}
	list := s.GetFields()["types"].GetListValue()
	for _, v := range list.GetValues() {
		if t := v.GetStringValue(); t != "" {
			f.Types = append(f.Types, recorder.EventType(t))
		}
	}
	return f
}
