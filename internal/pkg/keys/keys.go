package keys

import "mochi_forums/pkg/cache"

// 查询缓存键，变更操作按前缀失效

// All 全部论坛查询
func All() cache.Key { return cache.NewKey("forums") }

// List 已订阅论坛列表（后接排序）
func List() cache.Key { return All().With("list") }

// Info 论坛信息
func Info(forum string) cache.Key { return All().With("info", forum) }

// Detail 论坛详情与首页帖子（后接排序）
func Detail(forum string) cache.Key { return All().With("detail", forum) }

// Posts 论坛帖子分页
func Posts(forum string) cache.Key { return All().With("posts", forum) }

// Find 目录浏览
func Find() cache.Key { return All().With("find") }

// Search 目录搜索
func Search(term string) cache.Key { return All().With("search", term) }

// Access 访问控制列表
func Access(forum string) cache.Key { return All().With("access", forum) }

// Members 成员列表
func Members(forum string) cache.Key { return All().With("members", forum) }

// Recommendations 推荐论坛
func Recommendations() cache.Key { return All().With("recommendations") }

// Post 帖子详情与评论树
func Post(forum, post string) cache.Key { return All().With("post", forum, post) }

// Moderation 审核相关查询根
func Moderation(forum string) cache.Key { return All().With("moderation", forum) }

// Queue 待审核队列
func Queue(forum string) cache.Key { return Moderation(forum).With("queue") }

// Reports 举报列表（后接状态）
func Reports(forum string) cache.Key { return Moderation(forum).With("reports") }

// Restrictions 用户限制列表
func Restrictions(forum string) cache.Key { return Moderation(forum).With("restrictions") }

// Settings 审核设置
func Settings(forum string) cache.Key { return Moderation(forum).With("settings") }
