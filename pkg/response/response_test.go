package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestOKPage_TotalPages(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	OKPage(c, []int{1, 2}, 41, 1, 20)

	var body struct {
		Data PageData `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("解析响应失败: %v", err)
	}
	if body.Data.Pagination.TotalPages != 3 {
		t.Errorf("期望 TotalPages=3，实际=%d", body.Data.Pagination.TotalPages)
	}
}

func TestAck_NoEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Ack(c, gin.H{"status": "OK", "availability": 2})

	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际=%d", w.Code)
	}
	var body map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &body)
	if _, ok := body["code"]; ok {
		t.Error("Ack 不应包含统一信封字段 code")
	}
	if body["status"] != "OK" {
		t.Errorf("期望 status=OK，实际=%v", body["status"])
	}
}

func TestNotFound(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	NotFound(c, 12001, "日程不存在")

	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际=%d", w.Code)
	}
	var resp Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Code != 12001 || resp.Message != "日程不存在" {
		t.Errorf("响应体不符: %+v", resp)
	}
}
