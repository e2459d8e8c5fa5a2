package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/service"
	"github.com/solidrange/solidrange-form-flow-sub000/internal/utils"
)

// FormController 表单控制器
type FormController struct {
	formService service.FormService
}

// NewFormController 创建表单控制器
func NewFormController(formService service.FormService) *FormController {
	return &FormController{
		formService: formService,
	}
}

// validateFormID 验证表单 ID 并返回错误响应（如果无效）
func (c *FormController) validateFormID(ctx *gin.Context, id string) bool {
	if err := utils.ValidateID(id); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid form ID", err.Error())
		return false
	}
	return true
}

// Create 创建表单
// 新表单总是草稿状态,发布前可以随意修改
func (c *FormController) Create(ctx *gin.Context) {
	var req service.CreateFormRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	form, err := c.formService.Create(ctx.Request.Context(), &req)
	if err != nil {
		ServiceError(ctx, err, "create form")
		return
	}

	Success(ctx, form)
}

// Get 获取表单详情
func (c *FormController) Get(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateFormID(ctx, id) {
		return
	}

	form, status, err := c.formService.Get(id)
	if err != nil {
		ServiceError(ctx, err, "get form")
		return
	}

	Success(ctx, gin.H{
		"form":   form,
		"status": status,
	})
}

// List 获取表单列表
func (c *FormController) List(ctx *gin.Context) {
	forms, err := c.formService.List()
	if err != nil {
		ServiceError(ctx, err, "list forms")
		return
	}

	Success(ctx, forms)
}

// Update 更新表单
// 只有草稿状态的表单可以修改
func (c *FormController) Update(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateFormID(ctx, id) {
		return
	}

	var req service.UpdateFormRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		Error(ctx, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	form, err := c.formService.Update(ctx.Request.Context(), id, &req)
	if err != nil {
		ServiceError(ctx, err, "update form")
		return
	}

	Success(ctx, form)
}

// Publish 发布表单
// 发布前校验表单定义,包括风险阈值的严格递减约束
func (c *FormController) Publish(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateFormID(ctx, id) {
		return
	}

	if err := c.formService.Publish(ctx.Request.Context(), id); err != nil {
		ServiceError(ctx, err, "publish form")
		return
	}

	Success(ctx, nil)
}

// Archive 归档表单
func (c *FormController) Archive(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateFormID(ctx, id) {
		return
	}

	if err := c.formService.Archive(ctx.Request.Context(), id); err != nil {
		ServiceError(ctx, err, "archive form")
		return
	}

	Success(ctx, nil)
}

// Delete 删除表单
// 已发布的表单不能删除,需要先归档
func (c *FormController) Delete(ctx *gin.Context) {
	id := ctx.Param("id")
	if !c.validateFormID(ctx, id) {
		return
	}

	if err := c.formService.Delete(ctx.Request.Context(), id); err != nil {
		ServiceError(ctx, err, "delete form")
		return
	}

	Success(ctx, nil)
}
